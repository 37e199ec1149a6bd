package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/cbms-api/internal/eproc"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/models"
	"github.com/sjperalta/cbms-api/internal/services"
)

type BillHandler struct {
	billService *services.BillService
}

func NewBillHandler(billService *services.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// ApprovalRequest selects which signature or approval slot the caller fills
type ApprovalRequest struct {
	ApprovalType string `json:"approvalType" binding:"required"`
}

// RejectBillRequest is the request body for a tri-signature rejection
type RejectBillRequest struct {
	Reason          string           `json:"reason" binding:"required"`
	AmountLessDrawn *decimal.Decimal `json:"amountLessDrawn"`
}

// @Summary List Contingent Bills
// @Description Get a paginated list of bills
// @Tags Bills
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Comma-separated statuses"
// @Param object_code query string false "Object code"
// @Param fiscal_year query string false "Fiscal year"
// @Param search query string false "Bill number or supplier"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contingent-bills [get]
func (h *BillHandler) Index(c *gin.Context) {
	query := listQuery(c)
	query.Filters["object_code"] = c.Query("object_code")
	query.Filters["fiscal_year"] = c.Query("fiscal_year")

	bills, total, err := h.billService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ContingentBillResponse, 0, len(bills))
	for i := range bills {
		responses = append(responses, bills[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"bills":      responses,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Contingent Bill
// @Tags Bills
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Success 200 {object} models.ContingentBillResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /contingent-bills/{bill_id} [get]
func (h *BillHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := h.billService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill.ToResponse()})
}

// @Summary Bill History
// @Description Audit trail of a bill
// @Tags Bills
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /contingent-bills/{bill_id}/history [get]
func (h *BillHandler) History(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	logs, err := h.billService.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": logs})
}

// @Summary Create Contingent Bill
// @Description Register a bill as a draft. Accepts {"bill": {...}} or the flat object.
// @Tags Bills
// @Accept json
// @Produce json
// @Param request body services.BillInput true "Bill data"
// @Success 201 {object} models.ContingentBillResponse
// @Security BearerAuth
// @Router /contingent-bills [post]
func (h *BillHandler) Create(c *gin.Context) {
	var in services.BillInput
	if err := bindEnvelope(c, "bill", &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), in, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill": bill.ToResponse(), "message": "Bill created"})
}

// @Summary Import Bill From E-Procurement
// @Description Create a draft bill from a portal purchase order
// @Tags Bills
// @Accept json
// @Produce json
// @Param request body eproc.Order true "Purchase order"
// @Success 201 {object} models.ContingentBillResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /contingent-bills/from-eproc [post]
func (h *BillHandler) CreateFromEproc(c *gin.Context) {
	var order eproc.Order
	if err := bindEnvelope(c, "order", &order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.CreateFromEproc(c.Request.Context(), order, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bill": bill.ToResponse(), "message": "Bill imported"})
}

// @Summary Update Contingent Bill
// @Tags Bills
// @Accept json
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Param request body services.BillInput true "Changed fields"
// @Success 200 {object} models.ContingentBillResponse
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /contingent-bills/{bill_id} [put]
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	var in services.BillInput
	if err := bindEnvelope(c, "bill", &in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.Update(c.Request.Context(), id, in, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill.ToResponse(), "message": "Bill updated"})
}

// @Summary Sign Contingent Bill
// @Description Tri-signature approval: medical_superintendent, executive_director or pre_audit
// @Tags Bills
// @Accept json
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Param request body ApprovalRequest true "Approval type"
// @Success 200 {object} models.ContingentBillResponse
// @Security BearerAuth
// @Router /contingent-bills/{bill_id}/approve [post]
func (h *BillHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.Sign(c.Request.Context(), id, req.ApprovalType, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill.ToResponse(), "message": "Signature recorded"})
}

// @Summary Reject Contingent Bill
// @Tags Bills
// @Accept json
// @Produce json
// @Param bill_id path int true "Bill ID"
// @Param request body RejectBillRequest true "Reason"
// @Success 200 {object} models.ContingentBillResponse
// @Security BearerAuth
// @Router /contingent-bills/{bill_id}/reject [post]
func (h *BillHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	var req RejectBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bill, err := h.billService.Decline(c.Request.Context(), id, req.Reason, req.AmountLessDrawn, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill.ToResponse(), "message": "Bill rejected"})
}
