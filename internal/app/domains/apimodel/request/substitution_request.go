package request

// SuggestRequest 替代推荐请求
type SuggestRequest struct {
	SKU     string                 `json:"sku" binding:"required"`
	K       int                    `json:"k" binding:"omitempty,min=1,max=20"`
	Context map[string]interface{} `json:"context"`
}
