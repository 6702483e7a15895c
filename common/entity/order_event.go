package entity

import (
	"time"

	"gorm.io/datatypes"
)

// OrderEvent 订单事件（只追加）
type OrderEvent struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement:false"`
	OrderID   string         `gorm:"column:order_id;type:varchar(64);not null;index:idx_order_id"`
	Type      string         `gorm:"column:type;type:varchar(32);not null"`
	Data      datatypes.JSON `gorm:"column:data;type:json"`
	CreatedAt time.Time      `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (OrderEvent) TableName() string {
	return "order_events"
}
