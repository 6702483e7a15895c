package response

import "time"

// SessionResponse 会话快照
type SessionResponse struct {
	SessionID   string                 `json:"sessionId"`
	Stage       string                 `json:"stage"`
	OrderNumber string                 `json:"orderNumber,omitempty"`
	Context     map[string]interface{} `json:"context"`
	Preference  *PreferenceResponse    `json:"preference,omitempty"`
	Closing     bool                   `json:"closing"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	ExpiresAt   time.Time              `json:"expiresAt"`
}

// SuggestResponse 替代推荐结果
type SuggestResponse struct {
	SKU             string            `json:"sku"`
	Recommendations []*Recommendation `json:"recommendations"`
}

// Recommendation 推荐项
type Recommendation struct {
	SKU   string  `json:"sku"`
	Score float64 `json:"score"`
	Name  string  `json:"name"`
}

// HealthResponse 健康检查
type HealthResponse struct {
	Status       string `json:"status"`
	CatalogSize  int    `json:"catalogSize"`
	ModelVersion string `json:"modelVersion,omitempty"`
}
