package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/services"
)

type ChequeHandler struct {
	chequeService *services.ChequeService
}

func NewChequeHandler(chequeService *services.ChequeService) *ChequeHandler {
	return &ChequeHandler{chequeService: chequeService}
}

// @Summary List Asaan Cheques
// @Tags Cheques
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Pending, Approved or Forwarded"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /asaan-cheques [get]
func (h *ChequeHandler) Index(c *gin.Context) {
	query := listQuery(c)
	cheques, total, err := h.chequeService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cheques":    cheques,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Asaan Cheque
// @Tags Cheques
// @Produce json
// @Param cheque_id path int true "Cheque ID"
// @Success 200 {object} models.AsaanCheque
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /asaan-cheques/{cheque_id} [get]
func (h *ChequeHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "cheque_id")
	if !ok {
		return
	}
	cheque, err := h.chequeService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cheque": cheque, "amount_in_words": services.AmountInWords(cheque.Amount)})
}

// @Summary Approve Asaan Cheque
// @Description Director Finance or Executive Director signature. The second one approves the cheque;
// @Description the e-procurement outcome is reported in the X-Eproc-Notify header.
// @Tags Cheques
// @Accept json
// @Produce json
// @Param cheque_id path int true "Cheque ID"
// @Param request body ApprovalRequest true "director_finance or executive_director"
// @Success 200 {object} models.AsaanCheque
// @Header 200 {string} X-Eproc-Notify "ok | failed:<status> | skipped | error"
// @Security BearerAuth
// @Router /asaan-cheques/{cheque_id}/approve [post]
func (h *ChequeHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "cheque_id")
	if !ok {
		return
	}
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.chequeService.Approve(c.Request.Context(), id, req.ApprovalType, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Notify != "" {
		c.Header(middleware.EprocNotifyHeader, result.Notify)
	}
	c.JSON(http.StatusOK, gin.H{"cheque": result.Cheque, "message": "Cheque is " + result.Cheque.Status})
}

// @Summary Forward Asaan Cheque
// @Description Hand an approved cheque to the bank
// @Tags Cheques
// @Accept json
// @Produce json
// @Param cheque_id path int true "Cheque ID"
// @Param request body services.ForwardInput true "Bank details"
// @Success 200 {object} models.AsaanCheque
// @Security BearerAuth
// @Router /asaan-cheques/{cheque_id}/forward [post]
func (h *ChequeHandler) Forward(c *gin.Context) {
	id, ok := paramID(c, "cheque_id")
	if !ok {
		return
	}
	var in services.ForwardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cheque, err := h.chequeService.Forward(c.Request.Context(), id, in, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cheque": cheque, "message": "Cheque forwarded to bank"})
}

// @Summary E-Procurement Notifications
// @Description Finalize attempts recorded for a cheque
// @Tags Cheques
// @Produce json
// @Param cheque_id path int true "Cheque ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /asaan-cheques/{cheque_id}/notifications [get]
func (h *ChequeHandler) Notifications(c *gin.Context) {
	id, ok := paramID(c, "cheque_id")
	if !ok {
		return
	}
	records, err := h.chequeService.Notifications(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": records})
}

// @Summary Bank Advice PDF
// @Description Download the bank advice of a forwarded cheque
// @Tags Cheques
// @Produce application/pdf
// @Param cheque_id path int true "Cheque ID"
// @Param token query string false "JWT, for links opened without an Authorization header"
// @Success 200 {file} file "bank_advice.pdf"
// @Security BearerAuth
// @Router /asaan-cheques/{cheque_id}/advice [get]
func (h *ChequeHandler) Advice(c *gin.Context) {
	id, ok := paramID(c, "cheque_id")
	if !ok {
		return
	}
	pdf, filename, err := h.chequeService.AdvicePDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
