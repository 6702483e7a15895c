package rpevent

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"fulfilment/common/entity"
	"fulfilment/internal/app/domains/entity/etorder"
)

// EventRepositoryImpl 事件仓储实现（MySQL）
type EventRepositoryImpl struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储实例
func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{db: db}
}

// Append 追加事件
func (r *EventRepositoryImpl) Append(ctx context.Context, events []*etorder.Event) error {
	return AppendWith(r.db.WithContext(ctx), events)
}

// AppendWith 在给定连接（可为事务）上追加事件
func AppendWith(db *gorm.DB, events []*etorder.Event) error {
	if len(events) == 0 {
		return nil
	}
	pos, err := ToGormModels(events)
	if err != nil {
		return err
	}
	return db.Create(&pos).Error
}

// ListByOrder 按事件 ID（单调递增）排序返回
func (r *EventRepositoryImpl) ListByOrder(ctx context.Context, orderID string) ([]*etorder.Event, error) {
	var pos []entity.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}

	events := make([]*etorder.Event, 0, len(pos))
	for i := range pos {
		e, err := toDomainModel(&pos[i])
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// ToGormModels 领域事件转换为 GORM 模型
func ToGormModels(events []*etorder.Event) ([]entity.OrderEvent, error) {
	pos := make([]entity.OrderEvent, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("encode event %d failed: %w", e.ID, err)
		}
		pos = append(pos, entity.OrderEvent{
			ID:        e.ID,
			OrderID:   e.OrderID,
			Type:      string(e.Type),
			Data:      data,
			CreatedAt: e.At,
		})
	}
	return pos, nil
}

// toDomainModel GORM 模型转换为领域事件
func toDomainModel(po *entity.OrderEvent) (*etorder.Event, error) {
	e := &etorder.Event{
		ID:      po.ID,
		OrderID: po.OrderID,
		Type:    etorder.EventType(po.Type),
		At:      po.CreatedAt,
	}
	if len(po.Data) > 0 {
		if err := json.Unmarshal(po.Data, &e.Data); err != nil {
			return nil, fmt.Errorf("decode event %d failed: %w", po.ID, err)
		}
	}
	return e, nil
}
