package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/pkg/ginx"
)

// CreateClaim 售后索赔，当前返回 501 与占位说明
// POST /api/orders/claims/create
func (h *OrderHandler) CreateClaim(c *gin.Context) {
	var req request.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	if err := h.orderService.CreateClaim(c.Request.Context(), req.ToClaimEntity()); err != nil {
		_ = c.Error(err)
	}
}
