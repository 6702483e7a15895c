package rpevent

import (
	"context"
	"sync"

	"fulfilment/internal/app/domains/entity/etorder"
)

// MemoryEventRepository 进程内事件日志
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string][]*etorder.Event
}

// NewMemoryEventRepository 创建内存事件仓储
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string][]*etorder.Event)}
}

// Append 追加事件
func (r *MemoryEventRepository) Append(ctx context.Context, events []*etorder.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		ec := *e
		r.events[e.OrderID] = append(r.events[e.OrderID], &ec)
	}
	return nil
}

// ListByOrder 返回事件副本
func (r *MemoryEventRepository) ListByOrder(ctx context.Context, orderID string) ([]*etorder.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.events[orderID]
	out := make([]*etorder.Event, len(src))
	for i, e := range src {
		ec := *e
		out[i] = &ec
	}
	return out, nil
}
