package substitution

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/request"
	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/domains/services/svsubstitution"
	"fulfilment/internal/app/pkg/ginx"
)

// SubstitutionHandler 替代推荐 HTTP 处理器
type SubstitutionHandler struct {
	substitutionService *svsubstitution.SubstitutionService
}

// NewSubstitutionHandler 创建替代推荐处理器
func NewSubstitutionHandler(substitutionService *svsubstitution.SubstitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{substitutionService: substitutionService}
}

// Suggest 按 sku 推荐替代品
// POST /substitution/suggest
func (h *SubstitutionHandler) Suggest(c *gin.Context) {
	var req request.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ginx.BadRequestWithValidation(c, err)
		return
	}

	suggestion, err := h.substitutionService.Suggest(c.Request.Context(), req.ToSuggestCmd())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response.FromSuggestion(suggestion))
}

// Health 健康检查
// GET /health
func (h *SubstitutionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.FromHealth(h.substitutionService.Health()))
}
