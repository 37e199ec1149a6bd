package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/services"
	"github.com/sjperalta/cbms-api/internal/statemachine"
)

type WorkflowHandler struct {
	billService *services.BillService
}

func NewWorkflowHandler(billService *services.BillService) *WorkflowHandler {
	return &WorkflowHandler{billService: billService}
}

// routeActions maps URL action segments onto state machine actions
var routeActions = map[string]string{
	"submit-to-account-officer":     statemachine.ActionSubmit,
	"accountant-approve":            statemachine.ActionAccountantApprove,
	"account-officer-approve":       statemachine.ActionAccountOfficerApprove,
	"audit-officer-approve":         statemachine.ActionAuditOfficerApprove,
	"senior-budget-officer-approve": statemachine.ActionSeniorBudgetOfficerApprove,
	"director-finance-approve":      statemachine.ActionDirectorFinanceApprove,
	"reject":                        statemachine.ActionReject,
	"return":                        statemachine.ActionReturn,
	"save-draft":                    statemachine.ActionSaveDraft,
}

// @Summary Workflow Action
// @Description Apply one six-stage workflow action. Account officer approval and submissions may carry bill edits.
// @Tags Workflow
// @Accept json
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Param action path string true "submit-to-account-officer | accountant-approve | account-officer-approve | audit-officer-approve | senior-budget-officer-approve | director-finance-approve | reject | return | save-draft"
// @Param request body services.WorkflowRequest false "Remarks, reason, bill edits"
// @Success 200 {object} models.ContingentBillResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /workflow/bills/{bill_id}/{action} [post]
func (h *WorkflowHandler) Apply(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	action, ok := routeActions[c.Param("action")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown workflow action " + c.Param("action")})
		return
	}

	var req services.WorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.Transition(c.Request.Context(), id, action, req, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill.ToResponse(), "message": "Bill is now " + bill.Status})
}
