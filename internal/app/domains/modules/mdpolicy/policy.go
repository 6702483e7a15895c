package mdpolicy

import (
	"sort"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etcandidate"
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/entity/etsession"
)

// 默认参数
const (
	DefaultAcceptThreshold = 0.5
	DefaultMaxReplacements = 3
)

// Config 策略参数
type Config struct {
	AcceptThreshold float64
	MaxReplacements int
}

// Options 单次决策的上下文
type Options struct {
	// Preference 客户表态，非空时优先于阈值规则
	Preference *etsession.Preference
	// InOrder 候选商品是否已出现在同一订单的其他行中
	InOrder func(productCode string) bool
}

// Policy 缺货决策策略（纯函数，无副作用）
type Policy struct {
	cfg Config
}

// New 创建策略，非法参数回落到默认值
func New(cfg Config) *Policy {
	if cfg.AcceptThreshold <= 0 || cfg.AcceptThreshold > 1 {
		cfg.AcceptThreshold = DefaultAcceptThreshold
	}
	if cfg.MaxReplacements < 1 {
		cfg.MaxReplacements = DefaultMaxReplacements
	}
	return &Policy{cfg: cfg}
}

// Threshold 候选接受阈值
func (p *Policy) Threshold() float64 {
	return p.cfg.AcceptThreshold
}

// Decide 对单行缺货给出决策
// 1. picked > expected 直接拒绝
// 2. 完整拣货 → KEEP
// 3. 客户表态优先（指定替代品需属于本行）
// 4. 无可接受候选且未拣到 → DELETE
// 5. 有可接受候选 → REPLACE
// 6. 其余 → KEEP 部分数量
func (p *Policy) Decide(s *etorder.Shortage, candidates []etcandidate.Candidate, opts Options) (*etorder.Decision, error) {
	// 1. 数据校验
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// 2. 完整拣货
	if s.IsComplete() {
		return keep(s, etorder.SourcePolicy, "picked quantity matches expected quantity"), nil
	}

	acceptable := p.acceptable(candidates, opts.InOrder)

	// 3. 客户表态
	if pref := opts.Preference.For(s.LineID); pref != nil {
		switch pref.Kind {
		case etsession.PreferenceDecline:
			if s.Picked.IsZero() {
				return remove(s, etorder.SourceCustomer, "customer declined substitutes"), nil
			}
			return keep(s, etorder.SourceCustomer, "customer declined substitutes, keeping partial quantity"), nil
		case etsession.PreferenceAccept:
			if pref.ReplacementCode != "" {
				// 未限定行的指定替代品只作用于候选中出现该商品的行
				if pref.LineID == 0 && !listed(pref.ReplacementCode, candidates) {
					break
				}
				return replace(s, []etorder.Replacement{stated(pref.ReplacementCode, candidates)},
					etorder.SourceCustomer, "customer accepted the stated replacement"), nil
			}
			if len(acceptable) > 0 {
				return replace(s, p.top(acceptable), etorder.SourceCustomer,
					"customer accepted a substitute"), nil
			}
		}
	}

	// 4. 未拣到且无可接受候选
	if s.Picked.IsZero() && len(acceptable) == 0 {
		return remove(s, etorder.SourcePolicy, "nothing picked and no acceptable substitute"), nil
	}

	// 5. 可替代
	if len(acceptable) > 0 {
		return replace(s, p.top(acceptable), etorder.SourcePolicy, "substitute above acceptance threshold"), nil
	}

	// 6. 部分保留
	return keep(s, etorder.SourcePolicy, "no acceptable substitute, keeping partial quantity"), nil
}

// acceptable 过滤并排序：分数降序，订单内已有的商品优先，编码升序
func (p *Policy) acceptable(candidates []etcandidate.Candidate, inOrder func(string) bool) []etcandidate.Candidate {
	out := make([]etcandidate.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= p.cfg.AcceptThreshold {
			out = append(out, c)
		}
	}
	present := func(code string) bool {
		return inOrder != nil && inOrder(code)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		pi, pj := present(out[i].ProductCode), present(out[j].ProductCode)
		if pi != pj {
			return pi
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	return out
}

func (p *Policy) top(acceptable []etcandidate.Candidate) []etorder.Replacement {
	n := p.cfg.MaxReplacements
	if n > len(acceptable) {
		n = len(acceptable)
	}
	out := make([]etorder.Replacement, 0, n)
	for _, c := range acceptable[:n] {
		out = append(out, etorder.Replacement{ProductCode: c.ProductCode, Score: c.Score, Name: c.Name})
	}
	return out
}

func listed(code string, candidates []etcandidate.Candidate) bool {
	for _, c := range candidates {
		if c.ProductCode == code {
			return true
		}
	}
	return false
}

func stated(code string, candidates []etcandidate.Candidate) etorder.Replacement {
	for _, c := range candidates {
		if c.ProductCode == code {
			return etorder.Replacement{ProductCode: c.ProductCode, Score: c.Score, Name: c.Name}
		}
	}
	return etorder.Replacement{ProductCode: code}
}

func keep(s *etorder.Shortage, src etorder.Source, reason string) *etorder.Decision {
	return &etorder.Decision{
		LineID:         s.LineID,
		Action:         etorder.ActionKeep,
		ReplacementQty: decimal.Zero,
		KeptQty:        s.Picked,
		Source:         src,
		Confirmed:      true,
		Reason:         reason,
	}
}

func remove(s *etorder.Shortage, src etorder.Source, reason string) *etorder.Decision {
	return &etorder.Decision{
		LineID:         s.LineID,
		Action:         etorder.ActionDelete,
		ReplacementQty: decimal.Zero,
		KeptQty:        decimal.Zero,
		Source:         src,
		Reason:         reason,
	}
}

func replace(s *etorder.Shortage, replacements []etorder.Replacement, src etorder.Source, reason string) *etorder.Decision {
	return &etorder.Decision{
		LineID:         s.LineID,
		Action:         etorder.ActionReplace,
		Replacements:   replacements,
		ReplacementQty: s.Missing(),
		KeptQty:        s.Picked,
		Source:         src,
		Reason:         reason,
	}
}
