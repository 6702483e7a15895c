package etorder

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action 单行决策动作
type Action string

const (
	ActionKeep    Action = "KEEP"
	ActionReplace Action = "REPLACE"
	ActionDelete  Action = "DELETE"
)

// Source 决策来源
type Source string

const (
	SourcePolicy    Source = "POLICY"
	SourceCustomer  Source = "CUSTOMER"
	SourceProactive Source = "PROACTIVE"
)

// Replacement 替代商品
type Replacement struct {
	ProductCode string
	Score       float64
	Name        string
}

// Decision 单行决策（历史只追加，每行最新一条为生效决策）
type Decision struct {
	Seq            int64
	LineID         int64
	Action         Action
	Replacements   []Replacement
	ReplacementQty decimal.Decimal
	KeptQty        decimal.Decimal
	Source         Source
	Confirmed      bool
	Reason         string
	DecidedAt      time.Time
}

// NeedsConfirmation 是否等待客户确认
func (d *Decision) NeedsConfirmation() bool {
	return !d.Confirmed && d.Action != ActionKeep
}

// Clone 深拷贝，避免调用方修改历史
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	c := *d
	if d.Replacements != nil {
		c.Replacements = append([]Replacement(nil), d.Replacements...)
	}
	return &c
}

// ReplacementCodes 替代商品编码列表
func (d *Decision) ReplacementCodes() []string {
	codes := make([]string, 0, len(d.Replacements))
	for _, r := range d.Replacements {
		codes = append(codes, r.ProductCode)
	}
	return codes
}
