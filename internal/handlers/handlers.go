package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/repository"
	"github.com/sjperalta/cbms-api/internal/services"
	"github.com/sjperalta/cbms-api/pkg/logger"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Bill     *BillHandler
	Workflow *WorkflowHandler
	Schedule *ScheduleHandler
	Cheque   *ChequeHandler
	Budget   *BudgetHandler
	Eproc    *EprocHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Bill:     NewBillHandler(svcs.Bill),
		Workflow: NewWorkflowHandler(svcs.Bill),
		Schedule: NewScheduleHandler(svcs.Schedule),
		Cheque:   NewChequeHandler(svcs.Cheque),
		Budget:   NewBudgetHandler(svcs.Budget),
		Eproc:    NewEprocHandler(svcs.Bill),
	}
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrPrecondition):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUpstream):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// paramID parses a numeric path parameter, answering 400 when it is not one
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// listQuery reads the common paging and filter parameters
func listQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")
	query.Search = c.Query("search")
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	perPage := int64(query.PerPage)
	if perPage <= 0 {
		perPage = 20
	}
	return gin.H{
		"page":        query.Page,
		"per_page":    perPage,
		"total":       total,
		"total_pages": (total + perPage - 1) / perPage,
	}
}
