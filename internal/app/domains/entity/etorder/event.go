package etorder

import "time"

// EventType 订单事件类型
type EventType string

const (
	EventOrderCreated      EventType = "ORDER_CREATED"
	EventStateChanged      EventType = "STATE_CHANGED"
	EventShortageRecorded  EventType = "SHORTAGE_RECORDED"
	EventDecisionRecorded  EventType = "DECISION_RECORDED"
	EventDecisionConfirmed EventType = "DECISION_CONFIRMED"
	EventAdvisoryRecorded  EventType = "ADVISORY_RECORDED"
	EventClaimRejected     EventType = "CLAIM_REJECTED"
)

// Event 订单事件（只追加的审计日志）
type Event struct {
	ID      int64
	OrderID string
	Type    EventType
	Data    map[string]interface{}
	At      time.Time
}
