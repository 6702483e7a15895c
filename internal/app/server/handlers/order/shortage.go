package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/pkg/ginx"
)

// PickShortage 拣货员上报缺货
// POST /api/orders/events/pick-shortage
func (h *OrderHandler) PickShortage(c *gin.Context) {
	var req request.PickShortageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	res, err := h.orderService.ApplyShortage(c.Request.Context(), req.ToShortageCmd())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromShortageResult(res))
}

// ProactiveCall 无状态的批量缺货决策
// POST /api/orders/shortage/proactive-call
func (h *OrderHandler) ProactiveCall(c *gin.Context) {
	var req request.ProactiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	outcomes, err := h.orderService.ApplyProactiveCheck(c.Request.Context(), req.ToProactiveItems())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromLineOutcomes(outcomes))
}

// Preflight 下单前预检
// POST /api/orders/shortage/preflight
func (h *OrderHandler) Preflight(c *gin.Context) {
	var req request.PreflightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	outcomes, err := h.orderService.PreflightCheck(c.Request.Context(), req.ToPreflightCmd())
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromLineOutcomes(outcomes))
}
