package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/pkg/ginx"
)

// Fulfil 完成订单
// POST /api/orders/:id/fulfil
func (h *OrderHandler) Fulfil(c *gin.Context) {
	req, ok := bindTransition(c)
	if !ok {
		return
	}

	order, err := h.orderService.FulfillOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromOrderEntity(order))
}

// Cancel 升级取消（仅 AWAITING_DECISION）
// POST /api/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	req, ok := bindTransition(c)
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromOrderEntity(order))
}

// bindTransition 请求体可选
func bindTransition(c *gin.Context) (request.TransitionRequest, bool) {
	var req request.TransitionRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return req, false
	}
	return req, true
}
