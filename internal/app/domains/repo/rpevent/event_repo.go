package rpevent

import (
	"context"

	"fulfilment/internal/app/domains/entity/etorder"
)

// EventRepository 订单事件日志（只追加）
type EventRepository interface {
	// Append 追加事件
	Append(ctx context.Context, events []*etorder.Event) error

	// ListByOrder 按发生顺序返回订单的全部事件
	ListByOrder(ctx context.Context, orderID string) ([]*etorder.Event, error)
}
