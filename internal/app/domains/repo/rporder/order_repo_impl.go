package rporder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fulfilment/common/entity"
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/pkg/errorx"
)

// OrderRepositoryImpl 订单仓储实现（MySQL）
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

// Create 创建订单并写入事件（同一事务）
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *etorder.Order, events []*etorder.Event) error {
	po, err := r.toGormModel(order)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errorx.Conflict(errorx.CodeDuplicateOrder, "order %s already exists", order.ID)
			}
			return err
		}
		return rpevent.AppendWith(tx, events)
	})
}

// GetByID 根据ID查询订单，将 GORM 模型转换为领域对象
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, orderID string) (*etorder.Order, error) {
	var po entity.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.NotFound(errorx.CodeOrderNotFound, "order %s not found", orderID).
				WithCause(errorx.ErrOrderNotFound)
		}
		return nil, err
	}
	return r.toDomainModel(&po)
}

// Update 乐观锁更新订单并写入事件（同一事务）
func (r *OrderRepositoryImpl) Update(ctx context.Context, order *etorder.Order, events []*etorder.Event) error {
	doc, err := json.Marshal(toDocument(order))
	if err != nil {
		return fmt.Errorf("encode order document failed: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(map[string]interface{}{
				"state":      string(order.State),
				"version":    order.Version,
				"document":   doc,
				"updated_at": order.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errorx.Conflict(errorx.CodeStaleVersion, "order %s was modified concurrently", order.ID)
		}
		return rpevent.AppendWith(tx, events)
	})
}

// toGormModel 领域对象转换为 GORM 模型
func (r *OrderRepositoryImpl) toGormModel(order *etorder.Order) (*entity.Order, error) {
	doc, err := json.Marshal(toDocument(order))
	if err != nil {
		return nil, fmt.Errorf("encode order document failed: %w", err)
	}
	return &entity.Order{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		State:      string(order.State),
		Version:    order.Version,
		Document:   doc,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}, nil
}

// toDomainModel GORM 模型转换为领域对象
func (r *OrderRepositoryImpl) toDomainModel(po *entity.Order) (*etorder.Order, error) {
	var doc orderDocument
	if err := json.Unmarshal(po.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode order document failed: %w", err)
	}

	order := &etorder.Order{
		ID:         po.ID,
		CustomerID: po.CustomerID,
		State:      etorder.State(po.State),
		Version:    po.Version,
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
	doc.apply(order)
	return order, nil
}
