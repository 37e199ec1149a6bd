package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/services"
)

type BudgetHandler struct {
	budgetService *services.BudgetService
}

func NewBudgetHandler(budgetService *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// @Summary List Budget Entries
// @Tags Budgets
// @Produce json
// @Param fiscal_year query string false "Fiscal year, e.g. 2025-2026"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /budgets [get]
func (h *BudgetHandler) Index(c *gin.Context) {
	entries, err := h.budgetService.List(c.Request.Context(), c.Query("fiscal_year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budgets": entries})
}

// @Summary Get Budget Entry
// @Tags Budgets
// @Produce json
// @Param object_code path string true "Object code"
// @Param fiscal_year path string true "Fiscal year"
// @Success 200 {object} models.BudgetEntry
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /budgets/{object_code}/{fiscal_year} [get]
func (h *BudgetHandler) Show(c *gin.Context) {
	entry, err := h.budgetService.Get(c.Request.Context(), c.Param("object_code"), c.Param("fiscal_year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": entry})
}

// @Summary Budget Expense History
// @Tags Budgets
// @Produce json
// @Param object_code path string true "Object code"
// @Param fiscal_year path string true "Fiscal year"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /budgets/{object_code}/{fiscal_year}/expenses [get]
func (h *BudgetHandler) Expenses(c *gin.Context) {
	expenses, err := h.budgetService.Expenses(c.Request.Context(), c.Param("object_code"), c.Param("fiscal_year"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// @Summary Upsert Budget Entry
// @Description Create or edit the ledger entry of a budget head (Admin)
// @Tags Budgets
// @Accept json
// @Produce json
// @Param request body services.BudgetInput true "Budget components"
// @Success 200 {object} models.BudgetEntry
// @Security BearerAuth
// @Router /budgets [put]
func (h *BudgetHandler) Upsert(c *gin.Context) {
	var in services.BudgetInput
	if err := bindEnvelope(c, "budget", &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.budgetService.Upsert(c.Request.Context(), in, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": entry, "message": "Budget saved"})
}
