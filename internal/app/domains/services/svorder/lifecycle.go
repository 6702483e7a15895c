package svorder

import (
	"context"
	"errors"
	"fmt"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/pkg/errorx"
)

// GetOrder 查询订单
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*etorder.Order, error) {
	return s.orderModule.GetOrder(ctx, orderID)
}

// Events 订单事件日志（按发生顺序）
func (s *OrderService) Events(ctx context.Context, orderID string) ([]*etorder.Event, error) {
	if _, err := s.orderModule.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orderModule.ListEvents(ctx, orderID)
}

// FulfillOrder RESOLVED → FULFILLED（无缺货时也可从 PICKING 完成）
func (s *OrderService) FulfillOrder(ctx context.Context, orderID, reason string) (*etorder.Order, error) {
	if reason == "" {
		reason = "order fulfilled"
	}
	return s.transition(ctx, orderID, etorder.StateFulfilled, reason)
}

// CancelOrder AWAITING_DECISION → CANCELLED（升级处理），不改写已记录的决策
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string) (*etorder.Order, error) {
	if reason == "" {
		reason = "escalated without customer decision"
	}
	return s.transition(ctx, orderID, etorder.StateCancelled, reason)
}

func (s *OrderService) transition(ctx context.Context, orderID string, to etorder.State, reason string) (*etorder.Order, error) {
	var out *etorder.Order
	err := s.orderModule.WithOrderLock(orderID, func() error {
		order, err := s.orderModule.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.State == to {
			out = order
			return nil
		}
		if err := order.TransitionTo(to, reason, s.now()); err != nil {
			return err
		}
		if err := s.orderModule.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order failed: %w", err)
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infof(ctx, "order %s moved to %s: %s", orderID, to, reason)
	return out, nil
}

// CreateClaim 售后索赔尚未实现：返回携带占位说明的 NotImplemented
// 订单存在时只追加 CLAIM_REJECTED 事件，不修改订单
func (s *OrderService) CreateClaim(ctx context.Context, claim *etorder.Claim) error {
	if claim.OrderID == "" {
		return errorx.Validation(errorx.CodeInvalidRequest, "order id is required").
			WithDetail("orderId", "is required")
	}
	stub := etorder.NewClaimStub(claim)

	order, err := s.orderModule.GetOrder(ctx, claim.OrderID)
	switch {
	case err == nil:
		order.Record(etorder.EventClaimRejected, map[string]interface{}{
			"customerId":    claim.CustomerID,
			"channel":       claim.Channel,
			"attachmentIds": claim.AttachmentIDs,
			"status":        stub.Status,
		}, s.now())
		if err := s.orderModule.AppendEvents(ctx, order.TakeEvents()); err != nil {
			s.logger.Warnf(ctx, "record rejected claim failed: order_id=%s, error=%v", claim.OrderID, err)
		}
	case !errors.Is(err, errorx.ErrOrderNotFound):
		s.logger.Warnf(ctx, "load order for claim failed: order_id=%s, error=%v", claim.OrderID, err)
	}

	return errorx.NotImplemented("claim creation is not implemented yet", stub)
}
