package etorder

import (
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/pkg/errorx"
)

// Shortage 拣货缺货事实，记录后只读
type Shortage struct {
	LineID      int64
	ProductCode string
	Expected    decimal.Decimal
	Picked      decimal.Decimal
	PickerID    string
	Comment     string
	At          time.Time
}

// Validate 校验数量（picked ≤ expected，均非负）
func (s *Shortage) Validate() error {
	if s.Expected.IsNegative() {
		return errorx.Validation(errorx.CodeInvalidShortage, "expected quantity must not be negative").
			WithDetail("expectedQty", s.Expected.String())
	}
	if s.Picked.IsNegative() {
		return errorx.Validation(errorx.CodeInvalidShortage, "picked quantity must not be negative").
			WithDetail("pickedQty", s.Picked.String())
	}
	if s.Picked.GreaterThan(s.Expected) {
		return errorx.Validation(errorx.CodeInvalidShortage,
			"picked quantity %s exceeds expected quantity %s on line %d", s.Picked, s.Expected, s.LineID).
			WithDetail("pickedQty", "must be less than or equal to expectedQty")
	}
	return nil
}

// Missing 缺货数量 max(0, expected - picked)
func (s *Shortage) Missing() decimal.Decimal {
	d := s.Expected.Sub(s.Picked)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// IsComplete 是否完整拣货
func (s *Shortage) IsComplete() bool {
	return s.Picked.Equal(s.Expected)
}

// SameFact 判断是否为同一个缺货事件的重放
// 时间戳只有在两边都提供时才参与比较
func (s *Shortage) SameFact(other *Shortage) bool {
	if other == nil {
		return false
	}
	if s.LineID != other.LineID ||
		!s.Expected.Equal(other.Expected) ||
		!s.Picked.Equal(other.Picked) ||
		s.PickerID != other.PickerID ||
		s.Comment != other.Comment {
		return false
	}
	if !s.At.IsZero() && !other.At.IsZero() && !s.At.Equal(other.At) {
		return false
	}
	return true
}
