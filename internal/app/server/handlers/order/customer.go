package order

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/pkg/ginx"
)

// CustomerResponse 客户对替代方案的回复
// POST /api/orders/:id/customer-response
func (h *OrderHandler) CustomerResponse(c *gin.Context) {
	var req request.CustomerResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	res, err := h.orderService.ResolveWithCustomer(c.Request.Context(), req.ToCustomerResponseCmd(c.Param("id")))
	if err != nil {
		_ = c.Error(err)
		return
	}

	ginx.Success(c, response.FromCustomerResponseResult(res))
}
