package etsession

import (
	"fmt"
	"strconv"
	"time"
)

// Stage 会话阶段
type Stage string

const (
	StagePreOrderSubstitution      Stage = "pre_order_substitution"
	StagePostDeliveryInvestigation Stage = "post_delivery_investigation"
)

// 上下文字段
const (
	FieldOrderNumber         = "order_number"
	FieldDeliveryDate        = "delivery_date"
	FieldDetectedDiscrepancy = "detected_discrepancy"
	FieldLineID              = "line_id"
)

// maxTurns 保留的历史轮次上限
const maxTurns = 50

// ClassifyStage 根据上下文推断会话阶段：
// 存在交付日期或已发现差异时为售后调查，否则为下单前替代确认
func ClassifyStage(context map[string]interface{}) Stage {
	if present(context, FieldDetectedDiscrepancy) || present(context, FieldDeliveryDate) {
		return StagePostDeliveryInvestigation
	}
	return StagePreOrderSubstitution
}

func present(context map[string]interface{}, key string) bool {
	v, ok := context[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return t != ""
	case bool:
		return t
	}
	return true
}

// PreferenceKind 客户表态
type PreferenceKind string

const (
	PreferenceAccept  PreferenceKind = "accept"
	PreferenceDecline PreferenceKind = "decline"
)

// Preference 客户对替代品的表态
type Preference struct {
	Kind            PreferenceKind `json:"kind"`
	ReplacementCode string         `json:"replacementCode,omitempty"`
	LineID          int64          `json:"lineId,omitempty"` // 0 表示未限定行
	Text            string         `json:"text,omitempty"`
	At              time.Time      `json:"at"`
}

// For 对指定行生效的表态，限定到其他行时返回 nil
func (p *Preference) For(lineID int64) *Preference {
	if p == nil || (p.LineID != 0 && p.LineID != lineID) {
		return nil
	}
	return p
}

// Turn 单轮对话记录，阶段在当轮确定后不再改写
type Turn struct {
	Stage Stage     `json:"stage"`
	At    time.Time `json:"at"`
}

// Session 会话快照（按值传递）
type Session struct {
	ID          string
	Stage       Stage
	OrderNumber string
	Context     map[string]interface{}
	Preference  *Preference
	Turns       []Turn
	Closing     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// New 创建会话
func New(id string, now time.Time, ttl time.Duration) Session {
	return Session{
		ID:        id,
		Stage:     StagePreOrderSubstitution,
		Context:   map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Merge 字段级合并（后写覆盖），并记录本轮阶段
func (s *Session) Merge(fields map[string]interface{}, now time.Time, ttl time.Duration) {
	if s.Context == nil {
		s.Context = map[string]interface{}{}
	}
	for k, v := range fields {
		s.Context[k] = v
	}
	s.Stage = ClassifyStage(s.Context)
	if n := OrderNumberOf(s.Context); n != "" {
		s.OrderNumber = n
	}
	s.Turns = append(s.Turns, Turn{Stage: s.Stage, At: now})
	if len(s.Turns) > maxTurns {
		s.Turns = s.Turns[len(s.Turns)-maxTurns:]
	}
	s.UpdatedAt = now
	if !s.Closing {
		s.ExpiresAt = now.Add(ttl)
	}
}

// ActivePreference 仍可参与新决策的客户表态（关闭中的会话不再贡献）
func (s Session) ActivePreference() *Preference {
	if s.Closing || s.Preference == nil {
		return nil
	}
	p := *s.Preference
	return &p
}

// Expired 是否已过期
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone 深拷贝
func (s Session) Clone() Session {
	c := s
	c.Context = make(map[string]interface{}, len(s.Context))
	for k, v := range s.Context {
		c.Context[k] = v
	}
	if s.Preference != nil {
		p := *s.Preference
		c.Preference = &p
	}
	c.Turns = append([]Turn(nil), s.Turns...)
	return c
}

// OrderNumberOf 从上下文读取订单号
func OrderNumberOf(context map[string]interface{}) string {
	for _, key := range []string{FieldOrderNumber, "orderNumber", "order_id"} {
		if v, ok := context[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// LineIDOf 从上下文中读取正在讨论的订单行，缺失或非法时返回 0
func LineIDOf(context map[string]interface{}) int64 {
	for _, key := range []string{FieldLineID, "lineId"} {
		if id := toLineID(context[key]); id > 0 {
			return id
		}
	}
	return 0
}

func toLineID(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
	case int:
		return int64(t)
	case int64:
		return t
	case string:
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

// Ack 删除确认（惰性删除，宣告过期时间）
type Ack struct {
	SessionID string    `json:"sessionId"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAck 构造删除确认
func NewAck(id string, expiresAt time.Time, grace time.Duration) Ack {
	return Ack{
		SessionID: id,
		Message:   fmt.Sprintf("Session will expire in %s", grace),
		ExpiresAt: expiresAt,
	}
}
