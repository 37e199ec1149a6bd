package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/cbms-api/internal/services"
)

type EprocHandler struct {
	billService *services.BillService
}

func NewEprocHandler(billService *services.BillService) *EprocHandler {
	return &EprocHandler{billService: billService}
}

// @Summary Search E-Procurement Orders
// @Description Proxy a purchase-order search to the portal
// @Tags E-Procurement
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /eproc/orders [get]
func (h *EprocHandler) Orders(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	orders, err := h.billService.SearchEprocOrders(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
