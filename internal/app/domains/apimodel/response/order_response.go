package response

import "time"

// OrderResponse 订单详情
type OrderResponse struct {
	OrderID           string              `json:"orderId"`
	CustomerID        string              `json:"customerId,omitempty"`
	State             string              `json:"state"`
	Version           int64               `json:"version"`
	Lines             []*OrderLine        `json:"lines"`
	Decisions         []*DecisionResponse `json:"decisions"`
	PendingLines      []int64             `json:"pendingLines"`
	ExpectedShortages []int64             `json:"expectedShortages,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// OrderLine 订单行
type OrderLine struct {
	LineID      int64   `json:"lineId"`
	ProductCode string  `json:"productCode"`
	Name        string  `json:"name"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
}

// DecisionResponse 单行决策
type DecisionResponse struct {
	LineID         int64                  `json:"lineId"`
	Action         string                 `json:"action"`
	ReplacementQty float64                `json:"replacementQty"`
	KeptQty        float64                `json:"keptQty"`
	Replacements   []*ReplacementResponse `json:"replacements,omitempty"`
	Source         string                 `json:"source"`
	Confirmed      bool                   `json:"confirmed"`
	Reason         string                 `json:"reason,omitempty"`
	DecidedAt      time.Time              `json:"decidedAt"`
}

// ReplacementResponse 替代商品
type ReplacementResponse struct {
	ProductCode string  `json:"productCode"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
}

// CreateOrderResponse 创建订单响应
type CreateOrderResponse struct {
	OrderID   string                   `json:"orderId"`
	State     string                   `json:"state"`
	Items     []*OrderLine             `json:"items"`
	Shortages []*ShortageDecisionBrief `json:"shortages"`
}

// ShortageDecisionBrief 预测缺货行的建议决策
type ShortageDecisionBrief struct {
	LineID       int64                 `json:"lineId"`
	Action       string                `json:"action"`
	Replacements []*ReplacementSummary `json:"replacements"`
}

// ReplacementSummary 建议决策中的替代商品
type ReplacementSummary struct {
	ProductCode string `json:"productCode"`
	Name        string `json:"name"`
	Unit        string `json:"unit"`
}

// PickShortageResponse 缺货处理响应
type PickShortageResponse struct {
	OrderID       string               `json:"orderId"`
	LineID        int64                `json:"lineId"`
	ShortageQty   float64              `json:"shortageQty"`
	Action        string               `json:"action"`
	Replacements  []*ReplacementOption `json:"replacements"`
	Notifications []string             `json:"notifications"`
	Decision      *DecisionResponse    `json:"decision"`
	OrderState    string               `json:"orderState"`
	Replay        bool                 `json:"replay,omitempty"`
}

// ReplacementOption 缺货行的替代选项
type ReplacementOption struct {
	LineID       int64   `json:"lineId"`
	ProductCode  string  `json:"productCode"`
	Name         string  `json:"name"`
	AvailableQty float64 `json:"availableQty"`
	Unit         string  `json:"unit"`
}

// LineDecision 批量决策中的单行结果
type LineDecision struct {
	LineID         int64                  `json:"lineId"`
	Action         string                 `json:"action,omitempty"`
	ReplacementQty float64                `json:"replacementQty"`
	Replacements   []*ReplacementResponse `json:"replacements,omitempty"`
	Error          *LineError             `json:"error,omitempty"`
}

// LineError 单行失败原因
type LineError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ProactiveResponse 主动决策响应
type ProactiveResponse struct {
	Decisions []*LineDecision `json:"decisions"`
}

// CustomerResponseResponse 客户回复处理结果
type CustomerResponseResponse struct {
	OrderID    string              `json:"orderId"`
	SessionID  string              `json:"sessionId"`
	Stage      string              `json:"stage"`
	Preference *PreferenceResponse `json:"preference"`
	OrderState string              `json:"orderState"`
	Applied    []*DecisionResponse `json:"applied"`
	Pending    []int64             `json:"pendingLines"`
}

// PreferenceResponse 客户表态
type PreferenceResponse struct {
	Kind            string    `json:"kind"`
	ReplacementCode string    `json:"replacementCode,omitempty"`
	LineID          int64     `json:"lineId,omitempty"`
	At              time.Time `json:"at"`
}

// EventResponse 订单事件
type EventResponse struct {
	ID   int64                  `json:"id,string"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	At   time.Time              `json:"at"`
}
