package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/pkg/ginx"
)

// Create 创建订单并进入拣货，预测缺货行附带建议决策
// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req request.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	res, err := h.orderService.CreateOrder(c.Request.Context(), req.ToCreateOrderCmd())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Created(c, response.FromCreateOrderResult(res))
}
