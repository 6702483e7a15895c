package svorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

// ShortageCmd 拣货缺货事件
type ShortageCmd struct {
	OrderID     string
	LineID      int64
	ProductCode string // 为空时取订单行的商品
	ExpectedQty decimal.Decimal
	PickedQty   decimal.Decimal
	PickerID    string
	Comment     string
	At          time.Time // 为空时取当前时间
}

// ShortageResult 缺货处理结果
type ShortageResult struct {
	Order         *etorder.Order
	Decision      *etorder.Decision
	ShortageQty   decimal.Decimal
	Replay        bool // 重复投递，未产生新事件
	Notifications []string
}

// ApplyShortage 处理拣货缺货（按订单串行）
// 1. 校验数量（任何修改之前）
// 2. 加载订单并校验状态与订单行
// 3. 重复事件直接返回当前生效决策
// 4. 排序 + 策略决策
// 5. 记录缺货与决策，推进状态，落库
// 6. 发布决策通知
func (s *OrderService) ApplyShortage(ctx context.Context, cmd ShortageCmd) (*ShortageResult, error) {
	// 1. 数量校验
	if cmd.OrderID == "" {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "order id is required").
			WithDetail("orderId", "is required")
	}
	shortage := &etorder.Shortage{
		LineID:      cmd.LineID,
		ProductCode: cmd.ProductCode,
		Expected:    cmd.ExpectedQty,
		Picked:      cmd.PickedQty,
		PickerID:    cmd.PickerID,
		Comment:     cmd.Comment,
		At:          cmd.At,
	}
	if err := shortage.Validate(); err != nil {
		return nil, err
	}
	ctx = logger.WithOrderID(ctx, cmd.OrderID)

	var result *ShortageResult
	err := s.orderModule.WithOrderLock(cmd.OrderID, func() error {
		// 2. 订单与订单行
		order, err := s.orderModule.GetOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !order.State.AcceptsShortage() {
			return errorx.Conflict(errorx.CodeIllegalTransition,
				"order %s does not accept shortages in state %s", order.ID, order.State)
		}
		line, ok := order.Line(cmd.LineID)
		if !ok {
			return errorx.NotFound(errorx.CodeLineNotFound,
				"order %s does not contain line %d", order.ID, cmd.LineID)
		}
		if shortage.ProductCode == "" {
			shortage.ProductCode = line.ProductCode
		}

		// 3. 重复投递
		if last := order.LastShortage(cmd.LineID); last != nil && last.SameFact(shortage) {
			if active := order.ActiveDecision(cmd.LineID); active != nil {
				s.logger.Infof(ctx, "shortage replay ignored: line=%d", cmd.LineID)
				result = &ShortageResult{
					Order:       order,
					Decision:    active.Clone(),
					ShortageQty: last.Missing(),
					Replay:      true,
				}
				result.Notifications = shortageNotifications(order.ID, last, active)
				return nil
			}
		}

		// 4. 决策
		outcome := s.resolver.ResolveAll(ctx, order, []*etorder.Shortage{shortage}, nil)[0]
		if outcome.Err != nil {
			return outcome.Err
		}

		// 5. 记录并推进状态
		now := s.now()
		order.RecordShortage(shortage, now)
		decision := order.RecordDecision(outcome.Decision, now)
		if err := order.Settle(fmt.Sprintf("shortage on line %d", cmd.LineID), now); err != nil {
			return err
		}
		if err := s.orderModule.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order failed: %w", err)
		}

		result = &ShortageResult{
			Order:         order,
			Decision:      decision.Clone(),
			ShortageQty:   shortage.Missing(),
			Notifications: shortageNotifications(order.ID, shortage, decision),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 6. 通知
	if !result.Replay {
		s.logger.Infof(ctx, "shortage registered: line=%d, action=%s, replacements=%d, state=%s",
			cmd.LineID, result.Decision.Action, len(result.Decision.Replacements), result.Order.State)
		s.notify(ctx, result.Order, result.Decision)
	}
	return result, nil
}

// shortageNotifications 面向拣货员与沟通编排的可读提示
func shortageNotifications(orderID string, s *etorder.Shortage, d *etorder.Decision) []string {
	messages := []string{
		fmt.Sprintf("Order %s line %d flagged as short_pick (shortage %s units).",
			orderID, s.LineID, s.Missing().StringFixed(2)),
	}
	if s.Comment != "" {
		messages = append(messages, "Picker note: "+s.Comment)
	}
	switch d.Action {
	case etorder.ActionReplace:
		messages = append(messages, fmt.Sprintf(
			"Prepared %d replacement option(s) for Communication Orchestrator.", len(d.Replacements)))
	case etorder.ActionDelete:
		messages = append(messages, "No replacements available; customer approval required to remove the item.")
	default:
		if s.IsComplete() {
			messages = append(messages, "Shortage resolved during picking; no customer action required.")
		} else {
			messages = append(messages, "No acceptable replacement; keeping the picked quantity.")
		}
	}
	return messages
}
