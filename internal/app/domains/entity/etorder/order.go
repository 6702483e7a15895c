package etorder

import (
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/idgen"
)

// State 订单生命周期状态
type State string

const (
	StateCreated          State = "CREATED"
	StatePicking          State = "PICKING"
	StateAwaitingDecision State = "AWAITING_DECISION"
	StateResolved         State = "RESOLVED"
	StateFulfilled        State = "FULFILLED"
	StateCancelled        State = "CANCELLED"
)

// 合法的状态流转
var transitions = map[State][]State{
	StateCreated:          {StatePicking},
	StatePicking:          {StateAwaitingDecision, StateResolved, StateFulfilled},
	StateAwaitingDecision: {StateResolved, StateCancelled},
	StateResolved:         {StateAwaitingDecision, StateFulfilled},
}

// CanTransition 判断状态流转是否合法
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 是否终态
func (s State) IsTerminal() bool {
	return s == StateFulfilled || s == StateCancelled
}

// AcceptsShortage 当前状态是否接受缺货事件
func (s State) AcceptsShortage() bool {
	return s == StatePicking || s == StateAwaitingDecision || s == StateResolved
}

// OrderLine 订单行
type OrderLine struct {
	LineID      int64
	ProductCode string
	Name        string
	Quantity    decimal.Decimal
	Unit        string
}

// Order 订单聚合根
type Order struct {
	ID                string
	CustomerID        string
	Lines             []*OrderLine
	State             State
	Shortages         []*Shortage
	Decisions         []*Decision // 决策历史，按 Seq 递增
	Claims            []*Claim
	ExpectedShortages []int64 // 预测可能缺货的行
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time

	pending []*Event
}

// NewOrder 创建订单（工厂方法），初始状态 CREATED
func NewOrder(id, customerID string, lines []*OrderLine, now time.Time) (*Order, error) {
	if id == "" {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "order id cannot be empty")
	}
	if len(lines) == 0 {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "order must have at least one line").
			WithDetail("items", "is required")
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.LineID]; dup {
			return nil, errorx.Validation(errorx.CodeInvalidRequest, "duplicate line id %d", l.LineID).
				WithDetail("lineId", "must be unique within the order")
		}
		seen[l.LineID] = struct{}{}
		if l.ProductCode == "" {
			return nil, errorx.Validation(errorx.CodeInvalidRequest, "line %d has no product code", l.LineID).
				WithDetail("productCode", "is required")
		}
		if !l.Quantity.IsPositive() {
			return nil, errorx.Validation(errorx.CodeInvalidRequest, "line %d quantity must be positive", l.LineID).
				WithDetail("qty", "must be greater than 0")
		}
	}

	o := &Order{
		ID:         id,
		CustomerID: customerID,
		Lines:      lines,
		State:      StateCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	o.record(EventOrderCreated, map[string]interface{}{
		"customerId": customerID,
		"lines":      len(lines),
	}, now)
	return o, nil
}

// TransitionTo 状态流转，同状态视为无操作
func (o *Order) TransitionTo(to State, reason string, now time.Time) error {
	if o.State == to {
		return nil
	}
	if !CanTransition(o.State, to) {
		return errorx.Conflict(errorx.CodeIllegalTransition,
			"order %s cannot move from %s to %s", o.ID, o.State, to)
	}
	from := o.State
	o.State = to
	o.UpdatedAt = now
	o.record(EventStateChanged, map[string]interface{}{
		"from":   string(from),
		"to":     string(to),
		"reason": reason,
	}, now)
	return nil
}

// Line 查询订单行
func (o *Order) Line(lineID int64) (*OrderLine, bool) {
	for _, l := range o.Lines {
		if l.LineID == lineID {
			return l, true
		}
	}
	return nil, false
}

// LastShortage 该行最近一次缺货
func (o *Order) LastShortage(lineID int64) *Shortage {
	for i := len(o.Shortages) - 1; i >= 0; i-- {
		if o.Shortages[i].LineID == lineID {
			return o.Shortages[i]
		}
	}
	return nil
}

// ActiveDecision 该行当前生效的决策
func (o *Order) ActiveDecision(lineID int64) *Decision {
	for i := len(o.Decisions) - 1; i >= 0; i-- {
		if o.Decisions[i].LineID == lineID {
			return o.Decisions[i]
		}
	}
	return nil
}

// ActiveDecisions 按订单行顺序返回生效决策（每行至多一条）
func (o *Order) ActiveDecisions() []*Decision {
	out := make([]*Decision, 0, len(o.Lines))
	for _, l := range o.Lines {
		if d := o.ActiveDecision(l.LineID); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// RecordShortage 记录缺货事实（调用方需先校验）
func (o *Order) RecordShortage(s *Shortage, now time.Time) {
	if s.At.IsZero() {
		s.At = now
	}
	o.Shortages = append(o.Shortages, s)
	o.UpdatedAt = now
	o.record(EventShortageRecorded, map[string]interface{}{
		"lineId":      s.LineID,
		"expectedQty": s.Expected.String(),
		"pickedQty":   s.Picked.String(),
		"pickerId":    s.PickerID,
	}, now)
}

// RecordDecision 追加决策，成为该行的生效决策；已确认的决策立即作用于行数量
func (o *Order) RecordDecision(d *Decision, now time.Time) *Decision {
	d.Seq = int64(len(o.Decisions)) + 1
	d.DecidedAt = now
	o.Decisions = append(o.Decisions, d)
	o.UpdatedAt = now

	eventType := EventDecisionRecorded
	if d.Source == SourceProactive {
		eventType = EventAdvisoryRecorded
	}
	o.record(eventType, decisionEventData(d), now)

	if d.Confirmed {
		o.applyQuantity(d)
	}
	return d
}

// ConfirmDecision 确认该行生效决策并调整行数量
func (o *Order) ConfirmDecision(lineID int64, now time.Time) (*Decision, error) {
	d := o.ActiveDecision(lineID)
	if d == nil {
		return nil, errorx.NotFound(errorx.CodeLineNotFound, "line %d has no decision", lineID)
	}
	if d.Confirmed {
		return d, nil
	}
	d.Confirmed = true
	o.UpdatedAt = now
	o.applyQuantity(d)
	o.record(EventDecisionConfirmed, decisionEventData(d), now)
	return d, nil
}

// PendingLines 缺货行中生效决策尚待确认的行
func (o *Order) PendingLines() []int64 {
	var out []int64
	for _, l := range o.Lines {
		if o.LastShortage(l.LineID) == nil {
			continue
		}
		if d := o.ActiveDecision(l.LineID); d == nil || d.NeedsConfirmation() {
			out = append(out, l.LineID)
		}
	}
	return out
}

// Settle 根据待确认行决定 AWAITING_DECISION 或 RESOLVED
func (o *Order) Settle(reason string, now time.Time) error {
	target := StateResolved
	if len(o.PendingLines()) > 0 {
		target = StateAwaitingDecision
	}
	return o.TransitionTo(target, reason, now)
}

// ContainsProduct 商品是否出现在其他行中（用于同分候选的排序）
func (o *Order) ContainsProduct(productCode string, exceptLine int64) bool {
	for _, l := range o.Lines {
		if l.LineID != exceptLine && l.ProductCode == productCode && l.Quantity.IsPositive() {
			return true
		}
	}
	return false
}

// TakeEvents 取出尚未持久化的事件
func (o *Order) TakeEvents() []*Event {
	events := o.pending
	o.pending = nil
	return events
}

// Record 追加自定义事件（如拒绝的索赔）
func (o *Order) Record(t EventType, data map[string]interface{}, now time.Time) {
	o.record(t, data, now)
}

// Clone 深拷贝（内存仓储用）
func (o *Order) Clone() *Order {
	c := *o
	c.pending = nil
	c.Lines = make([]*OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	c.Shortages = make([]*Shortage, len(o.Shortages))
	for i, s := range o.Shortages {
		sc := *s
		c.Shortages[i] = &sc
	}
	c.Decisions = make([]*Decision, len(o.Decisions))
	for i, d := range o.Decisions {
		c.Decisions[i] = d.Clone()
	}
	c.Claims = make([]*Claim, len(o.Claims))
	for i, cl := range o.Claims {
		cc := *cl
		c.Claims[i] = &cc
	}
	c.ExpectedShortages = append([]int64(nil), o.ExpectedShortages...)
	return &c
}

func (o *Order) applyQuantity(d *Decision) {
	if d.Source == SourceProactive {
		return
	}
	if l, ok := o.Line(d.LineID); ok {
		l.Quantity = d.KeptQty
	}
}

func (o *Order) record(t EventType, data map[string]interface{}, now time.Time) {
	o.pending = append(o.pending, &Event{
		ID:      idgen.NextEventID(),
		OrderID: o.ID,
		Type:    t,
		Data:    data,
		At:      now,
	})
}

func decisionEventData(d *Decision) map[string]interface{} {
	return map[string]interface{}{
		"seq":            d.Seq,
		"lineId":         d.LineID,
		"action":         string(d.Action),
		"source":         string(d.Source),
		"confirmed":      d.Confirmed,
		"replacementQty": d.ReplacementQty.String(),
		"keptQty":        d.KeptQty.String(),
		"replacements":   d.ReplacementCodes(),
	}
}
