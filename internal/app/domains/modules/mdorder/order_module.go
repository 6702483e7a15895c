package mdorder

import (
	"context"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/domains/repo/rporder"
	"fulfilment/internal/app/pkg/keylock"
)

// OrderModule 订单模块（数据操作 + 按订单串行化）
type OrderModule struct {
	orderRepo rporder.OrderRepository
	eventRepo rpevent.EventRepository
	locks     *keylock.KeyLock
}

// NewOrderModule 创建订单模块
func NewOrderModule(orderRepo rporder.OrderRepository, eventRepo rpevent.EventRepository) *OrderModule {
	return &OrderModule{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		locks:     keylock.New(),
	}
}

// CreateOrder 创建订单并落库其待持久化事件
func (m *OrderModule) CreateOrder(ctx context.Context, order *etorder.Order) error {
	order.Version = 1
	return m.orderRepo.Create(ctx, order, order.TakeEvents())
}

// GetOrder 查询订单
func (m *OrderModule) GetOrder(ctx context.Context, orderID string) (*etorder.Order, error) {
	return m.orderRepo.GetByID(ctx, orderID)
}

// SaveOrder 乐观锁保存订单变更与事件；无事件时不写库
func (m *OrderModule) SaveOrder(ctx context.Context, order *etorder.Order) error {
	events := order.TakeEvents()
	if len(events) == 0 {
		return nil
	}
	order.Version++
	if err := m.orderRepo.Update(ctx, order, events); err != nil {
		order.Version--
		return err
	}
	return nil
}

// AppendEvents 只追加事件，不修改订单
func (m *OrderModule) AppendEvents(ctx context.Context, events []*etorder.Event) error {
	return m.eventRepo.Append(ctx, events)
}

// ListEvents 订单事件日志
func (m *OrderModule) ListEvents(ctx context.Context, orderID string) ([]*etorder.Event, error) {
	return m.eventRepo.ListByOrder(ctx, orderID)
}

// WithOrderLock 在订单级互斥下执行 fn，不同订单互不阻塞
func (m *OrderModule) WithOrderLock(orderID string, fn func() error) error {
	unlock := m.locks.Lock(orderID)
	defer unlock()
	return fn()
}
