package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fulfilment/common/entity"
)

// WarehouseReader 仓库库存只读查询（MySQL warehouse_items）
type WarehouseReader struct {
	db *gorm.DB
}

// NewWarehouseReader 创建库存查询
func NewWarehouseReader(db *gorm.DB) *WarehouseReader {
	return &WarehouseReader{db: db}
}

// OnHand 批量查询在库数量，未登记的商品不出现在结果中（视为 0）
func (r *WarehouseReader) OnHand(ctx context.Context, productCodes []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productCodes))
	if len(productCodes) == 0 {
		return out, nil
	}

	var items []entity.WarehouseItem
	err := r.db.WithContext(ctx).
		Where("product_code IN ?", productCodes).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("query warehouse items failed: %w", err)
	}
	for _, it := range items {
		out[it.ProductCode] = it.OnHand
	}
	return out, nil
}
