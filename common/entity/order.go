package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Order 订单持久化对象（订单行、缺货、决策等以 JSON 文档存储）
type Order struct {
	ID         string `gorm:"column:id;primaryKey;type:varchar(64)"`
	CustomerID string `gorm:"column:customer_id;type:varchar(64);not null;index:idx_customer_state"`
	State      string `gorm:"column:state;type:varchar(32);not null;index:idx_customer_state"`
	Version    int64  `gorm:"column:version;not null;default:1"`

	// 聚合内容
	Document datatypes.JSON `gorm:"column:document;type:json;not null"`

	// 时间戳
	CreatedAt time.Time `gorm:"column:created_at;not null;index:idx_created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
