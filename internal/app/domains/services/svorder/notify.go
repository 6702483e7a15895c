package svorder

import (
	"context"

	"fulfilment/common/model"
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/pkg/idgen"
)

// notify 发布决策通知，失败不影响主流程
func (s *OrderService) notify(ctx context.Context, order *etorder.Order, decisions ...*etorder.Decision) {
	if len(s.notifiers) == 0 {
		return
	}
	for _, d := range decisions {
		n := &model.DecisionNotification{
			RequestID:      idgen.NewRequestID(),
			ActionType:     model.ActionTypeShortageDecision,
			OrderID:        order.ID,
			LineID:         d.LineID,
			Action:         string(d.Action),
			Replacements:   d.ReplacementCodes(),
			ReplacementQty: d.ReplacementQty.InexactFloat64(),
			KeptQty:        d.KeptQty.InexactFloat64(),
			Source:         string(d.Source),
			Confirmed:      d.Confirmed,
			OrderState:     string(order.State),
			Timestamp:      d.DecidedAt.UnixMilli(),
		}
		for _, notifier := range s.notifiers {
			if err := notifier.NotifyDecision(ctx, n); err != nil {
				s.logger.Warnf(ctx, "notify decision failed: order_id=%s, line_id=%d, error=%v", order.ID, d.LineID, err)
			}
		}
	}
}
