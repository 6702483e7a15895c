package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/modules/mdranker"
)

// SnapshotSource 提供当前目录快照
type SnapshotSource interface {
	Snapshot() *mdranker.Snapshot
}

// CatalogReader 基于目录快照的库存查询（内存模式）
type CatalogReader struct {
	src SnapshotSource
}

// NewCatalogReader 创建目录库存查询
func NewCatalogReader(src SnapshotSource) *CatalogReader {
	return &CatalogReader{src: src}
}

// OnHand 返回目录中记录的在库数量
func (r *CatalogReader) OnHand(ctx context.Context, productCodes []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productCodes))
	snap := r.src.Snapshot()
	if snap == nil || snap.Catalog == nil {
		return out, nil
	}
	for _, code := range productCodes {
		if p, ok := snap.Catalog.Lookup(code); ok {
			out[code] = decimal.NewFromFloat(p.OnHand)
		}
	}
	return out, nil
}
