package rporder

import (
	"context"
	"sync"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/pkg/errorx"
)

// MemoryOrderRepository 进程内订单仓储，保存副本避免调用方共享可变状态
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*etorder.Order
	events rpevent.EventRepository
}

// NewMemoryOrderRepository 创建内存订单仓储，事件写入 events
func NewMemoryOrderRepository(events rpevent.EventRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*etorder.Order),
		events: events,
	}
}

// Create 创建订单
func (r *MemoryOrderRepository) Create(ctx context.Context, order *etorder.Order, events []*etorder.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return errorx.Conflict(errorx.CodeDuplicateOrder, "order %s already exists", order.ID)
	}
	r.orders[order.ID] = order.Clone()
	return r.events.Append(ctx, events)
}

// GetByID 查询订单副本
func (r *MemoryOrderRepository) GetByID(ctx context.Context, orderID string) (*etorder.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, errorx.NotFound(errorx.CodeOrderNotFound, "order %s not found", orderID).
			WithCause(errorx.ErrOrderNotFound)
	}
	return o.Clone(), nil
}

// Update 乐观锁更新
func (r *MemoryOrderRepository) Update(ctx context.Context, order *etorder.Order, events []*etorder.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.orders[order.ID]
	if !ok {
		return errorx.NotFound(errorx.CodeOrderNotFound, "order %s not found", order.ID).
			WithCause(errorx.ErrOrderNotFound)
	}
	if cur.Version != order.Version-1 {
		return errorx.Conflict(errorx.CodeStaleVersion, "order %s was modified concurrently", order.ID)
	}
	r.orders[order.ID] = order.Clone()
	return r.events.Append(ctx, events)
}
