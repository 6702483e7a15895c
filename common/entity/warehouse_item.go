package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WarehouseItem 仓库库存（只读，由仓储系统维护）
type WarehouseItem struct {
	ProductCode string          `gorm:"column:product_code;primaryKey;type:varchar(64)"`
	OnHand      decimal.Decimal `gorm:"column:on_hand;type:decimal(12,3);not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

// TableName 指定表名
func (WarehouseItem) TableName() string {
	return "warehouse_items"
}
