package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(scheduleService *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// BatchRequest lists the approved bills to aggregate
type BatchRequest struct {
	BillIDs []uint `json:"billIds" binding:"required"`
}

// @Summary List Schedules of Payment
// @Tags Schedules
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Pending or Approved"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /schedule-of-payments [get]
func (h *ScheduleHandler) Index(c *gin.Context) {
	query := listQuery(c)
	schedules, total, err := h.scheduleService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"schedules":  schedules,
		"pagination": pagination(query, total),
	})
}

// @Summary Get Schedule of Payment
// @Tags Schedules
// @Produce json
// @Param schedule_id path int true "Schedule ID"
// @Success 200 {object} models.ScheduleOfPayment
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /schedule-of-payments/{schedule_id} [get]
func (h *ScheduleHandler) Show(c *gin.Context) {
	id, ok := paramID(c, "schedule_id")
	if !ok {
		return
	}
	schedule, err := h.scheduleService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule, "next_approval": schedule.NextApproval()})
}

// @Summary Create Payment Batch
// @Description Aggregate approved bills into one schedule of payment. All or nothing.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Bill IDs"
// @Success 201 {object} models.ScheduleOfPayment
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /schedule-of-payments/batch [post]
func (h *ScheduleHandler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedule, err := h.scheduleService.CreateBatch(c.Request.Context(), req.BillIDs, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule": schedule, "message": "Schedule of payment created"})
}

// @Summary Approve Schedule of Payment
// @Description Record one of the six sequential approvals. The last one issues the Asaan cheque.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schedule_id path int true "Schedule ID"
// @Param request body ApprovalRequest true "Approval type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /schedule-of-payments/{schedule_id}/approve [post]
func (h *ScheduleHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "schedule_id")
	if !ok {
		return
	}
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedule, cheque, err := h.scheduleService.Approve(c.Request.Context(), id, req.ApprovalType, middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"schedule": schedule, "message": req.ApprovalType + " approval recorded"}
	if cheque != nil {
		resp["cheque"] = cheque
		resp["message"] = "Schedule approved and Asaan cheque issued"
	}
	c.JSON(http.StatusOK, resp)
}
