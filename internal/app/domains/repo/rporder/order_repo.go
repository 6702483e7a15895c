package rporder

import (
	"context"

	"fulfilment/internal/app/domains/entity/etorder"
)

// OrderRepository 订单仓储接口
// 订单与其产生的事件在同一次写入中落库
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *etorder.Order, events []*etorder.Event) error

	// GetByID 根据ID查询订单，不存在返回 NotFound
	GetByID(ctx context.Context, orderID string) (*etorder.Order, error)

	// Update 乐观锁更新：order.Version 需比库中版本大 1，否则返回 Conflict
	Update(ctx context.Context, order *etorder.Order, events []*etorder.Event) error
}
