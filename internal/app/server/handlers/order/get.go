package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/pkg/ginx"
)

// Get 订单详情（含每行生效决策）
// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromOrderEntity(order))
}

// Events 订单事件日志
// GET /api/orders/:id/events
func (h *OrderHandler) Events(c *gin.Context) {
	events, err := h.orderService.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromEvents(events))
}
