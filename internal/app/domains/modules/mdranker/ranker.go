package mdranker

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"fulfilment/internal/app/domains/entity/etcandidate"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

// InventoryReader 仓库库存只读查询（按商品编码）
type InventoryReader interface {
	OnHand(ctx context.Context, productCodes []string) (map[string]decimal.Decimal, error)
}

// Ranker 替代品候选排序
type Ranker struct {
	snapshot         atomic.Pointer[Snapshot]
	inventory        InventoryReader
	inventoryTimeout time.Duration
	logger           logger.Logger
}

// Option Ranker 选项
type Option func(*Ranker)

// WithInventory 注入库存查询；未注入时使用目录中的库存值
func WithInventory(inv InventoryReader, timeout time.Duration) Option {
	return func(r *Ranker) {
		r.inventory = inv
		r.inventoryTimeout = timeout
	}
}

// NewRanker 创建 Ranker，snap 可为 nil（全部走兜底）
func NewRanker(snap *Snapshot, log logger.Logger, opts ...Option) *Ranker {
	r := &Ranker{
		inventoryTimeout: 300 * time.Millisecond,
		logger:           log,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snapshot.Store(snap)
	return r
}

// Swap 原子替换快照，进行中的调用继续使用旧快照
func (r *Ranker) Swap(snap *Snapshot) {
	r.snapshot.Store(snap)
}

// Snapshot 当前快照
func (r *Ranker) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Rank 返回按分数降序、编码升序排列的候选，长度不超过 k
// 1. 参数校验
// 2. 模型或目录不可用时走兜底
// 3. 查询候选库存（超时或失败走兜底）
// 4. 计算特征与分数，排序截断
func (r *Ranker) Rank(ctx context.Context, productCode string, desiredQty decimal.Decimal, k int) ([]etcandidate.Candidate, error) {
	// 1. 参数校验
	if productCode == "" {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "product code is required").
			WithDetail("productCode", "is required")
	}
	if k < 1 {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "k must be at least 1").
			WithDetail("k", "must be at least 1")
	}

	// 2. 快照检查
	snap := r.snapshot.Load()
	if snap == nil || snap.Model == nil {
		r.logger.Debugf(ctx, "ranker fallback: %v, product=%s", errorx.ErrModelUnavailable, productCode)
		return Fallback(k), nil
	}
	if snap.Catalog.Len() == 0 {
		r.logger.Debugf(ctx, "ranker fallback: empty catalog, product=%s", productCode)
		return Fallback(k), nil
	}
	src, ok := snap.Catalog.Lookup(productCode)
	if !ok {
		r.logger.Debugf(ctx, "ranker fallback: unknown product=%s", productCode)
		return Fallback(k), nil
	}

	pool := make([]*Product, 0, snap.Catalog.Len())
	codes := make([]string, 0, snap.Catalog.Len())
	for _, p := range snap.Catalog.Products {
		if p.Code == src.Code {
			continue
		}
		pool = append(pool, p)
		codes = append(codes, p.Code)
	}
	if len(pool) == 0 {
		return Fallback(k), nil
	}

	// 3. 库存查询
	onHand, err := r.lookupOnHand(ctx, pool, codes)
	if err != nil {
		r.logger.Warnf(ctx, "ranker fallback: inventory lookup failed, product=%s, error=%v", productCode, err)
		return Fallback(k), nil
	}

	// 4. 打分排序
	desired := desiredQty.InexactFloat64()
	out := make([]etcandidate.Candidate, 0, len(pool))
	for _, p := range pool {
		x := features(src, p, onHand[p.Code], desired)
		out = append(out, etcandidate.Candidate{
			ProductCode: p.Code,
			Score:       etcandidate.Clamp(score(snap.Model, x)),
			Name:        p.Name,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (r *Ranker) lookupOnHand(ctx context.Context, pool []*Product, codes []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pool))
	if r.inventory == nil {
		for _, p := range pool {
			out[p.Code] = p.OnHand
		}
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.inventoryTimeout)
	defer cancel()

	quantities, err := r.inventory.OnHand(ctx, codes)
	if err != nil {
		return nil, err
	}
	for code, q := range quantities {
		out[code] = q.InexactFloat64()
	}
	return out, nil
}
