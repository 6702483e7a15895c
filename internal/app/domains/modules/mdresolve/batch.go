package mdresolve

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fulfilment/internal/app/domains/entity/etcandidate"
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/domains/modules/mdpolicy"
	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/pkg/logger"
)

// Ranker 候选排序
type Ranker interface {
	Rank(ctx context.Context, productCode string, desiredQty decimal.Decimal, k int) ([]etcandidate.Candidate, error)
}

// LineOutcome 单行结果：Decision 与 Err 二选一
type LineOutcome struct {
	LineID   int64
	Decision *etorder.Decision
	Err      error
}

// OK 是否成功
func (o LineOutcome) OK() bool {
	return o.Err == nil && o.Decision != nil
}

// Config 批处理参数
type Config struct {
	Parallelism int
	K           int // 每行请求的候选数
}

// Resolver 主动决策批处理：逐行排序并决策，行间相互隔离
type Resolver struct {
	ranker Ranker
	policy *mdpolicy.Policy
	cfg    Config
	logger logger.Logger
}

// NewResolver 创建批处理器
func NewResolver(ranker Ranker, policy *mdpolicy.Policy, cfg Config, log logger.Logger) *Resolver {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.K < 1 {
		cfg.K = mdpolicy.DefaultMaxReplacements
	}
	return &Resolver{ranker: ranker, policy: policy, cfg: cfg, logger: log}
}

// ResolveAll 对一组缺货逐行决策，输出顺序与输入一致
// order 可为 nil（无状态的预检）；session 为 nil 或关闭中时不采用客户表态
// 限定了行的表态只作用于该行
// 单行失败只影响该行，其余行照常返回
func (r *Resolver) ResolveAll(ctx context.Context, order *etorder.Order, shortages []*etorder.Shortage, session *etsession.Session) []LineOutcome {
	outcomes := make([]LineOutcome, len(shortages))

	var pref *etsession.Preference
	if session != nil {
		pref = session.ActivePreference()
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.Parallelism)
	for i, s := range shortages {
		i, s := i, s
		g.Go(func() error {
			outcomes[i] = r.resolveLine(ctx, order, s, pref)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (r *Resolver) resolveLine(ctx context.Context, order *etorder.Order, s *etorder.Shortage, pref *etsession.Preference) LineOutcome {
	out := LineOutcome{LineID: s.LineID}

	if err := s.Validate(); err != nil {
		out.Err = err
		return out
	}

	var candidates []etcandidate.Candidate
	if !s.IsComplete() {
		cands, err := r.candidates(ctx, order, s)
		if err != nil {
			r.logger.Warnf(ctx, "rank line failed: line=%d, error=%v", s.LineID, err)
			out.Err = err
			return out
		}
		candidates = cands
	}

	opts := mdpolicy.Options{Preference: pref.For(s.LineID)}
	if order != nil {
		lineID := s.LineID
		opts.InOrder = func(code string) bool { return order.ContainsProduct(code, lineID) }
	}

	d, err := r.policy.Decide(s, candidates, opts)
	if err != nil {
		out.Err = err
		return out
	}
	out.Decision = d
	return out
}

func (r *Resolver) candidates(ctx context.Context, order *etorder.Order, s *etorder.Shortage) ([]etcandidate.Candidate, error) {
	code := s.ProductCode
	if code == "" && order != nil {
		if line, ok := order.Line(s.LineID); ok {
			code = line.ProductCode
		}
	}
	if code == "" {
		return mdranker.Fallback(r.cfg.K), nil
	}
	return r.ranker.Rank(ctx, code, s.Missing(), r.cfg.K)
}
