package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/middleware"
	"github.com/sjperalta/cbms-api/internal/models"
)

// RegisterRoutes mounts every endpoint under v1. Role checks for workflow actions
// live in the services; only ledger edits are guarded at the route.
func (h *Handlers) RegisterRoutes(v1 *gin.RouterGroup, jwtSecret string) {
	// Health check (public)
	v1.GET("/health", h.Health.Index)

	// The bank advice is opened from a plain link, so it alone takes ?token=
	v1.GET("/asaan-cheques/:cheque_id/advice", middleware.Auth(jwtSecret, middleware.AllowQueryToken()), h.Cheque.Advice)

	protected := v1.Group("")
	protected.Use(middleware.Auth(jwtSecret))
	{
		bills := protected.Group("/contingent-bills")
		{
			bills.GET("", h.Bill.Index)
			bills.POST("", h.Bill.Create)
			bills.POST("/from-eproc", h.Bill.CreateFromEproc)
			bills.GET("/:bill_id", h.Bill.Show)
			bills.PUT("/:bill_id", h.Bill.Update)
			bills.GET("/:bill_id/history", h.Bill.History)
			bills.POST("/:bill_id/approve", h.Bill.Approve)
			bills.POST("/:bill_id/reject", h.Bill.Reject)
		}

		protected.POST("/workflow/bills/:bill_id/:action", h.Workflow.Apply)

		schedules := protected.Group("/schedule-of-payments")
		{
			schedules.GET("", h.Schedule.Index)
			schedules.POST("/batch", h.Schedule.Batch)
			schedules.GET("/:schedule_id", h.Schedule.Show)
			schedules.POST("/:schedule_id/approve", h.Schedule.Approve)
		}

		cheques := protected.Group("/asaan-cheques")
		{
			cheques.GET("", h.Cheque.Index)
			cheques.GET("/:cheque_id", h.Cheque.Show)
			cheques.POST("/:cheque_id/approve", h.Cheque.Approve)
			cheques.POST("/:cheque_id/forward", h.Cheque.Forward)
			cheques.GET("/:cheque_id/notifications", h.Cheque.Notifications)
		}

		budgets := protected.Group("/budgets")
		{
			budgets.GET("", h.Budget.Index)
			budgets.PUT("", middleware.RequireRole(models.RoleAdmin), h.Budget.Upsert)
			budgets.GET("/:object_code/:fiscal_year", h.Budget.Show)
			budgets.GET("/:object_code/:fiscal_year/expenses", h.Budget.Expenses)
		}

		protected.GET("/eproc/orders", h.Eproc.Orders)
	}
}
