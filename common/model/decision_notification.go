package model

// DecisionNotification 决策通知（履约服务 → 沟通编排服务）
type DecisionNotification struct {
	RequestID      string   `json:"request_id"`
	ActionType     string   `json:"action_type"` // 固定值 "shortage_decision"
	OrderID        string   `json:"order_id"`
	LineID         int64    `json:"line_id"`
	Action         string   `json:"action"` // KEEP/REPLACE/DELETE
	Replacements   []string `json:"replacements,omitempty"`
	ReplacementQty float64  `json:"replacement_qty"`
	KeptQty        float64  `json:"kept_qty"`
	Source         string   `json:"source"`
	Confirmed      bool     `json:"confirmed"`
	OrderState     string   `json:"order_state"`
	Timestamp      int64    `json:"timestamp"`
}

// ActionTypeShortageDecision 决策通知动作类型
const ActionTypeShortageDecision = "shortage_decision"
