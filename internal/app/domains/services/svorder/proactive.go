package svorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/pkg/errorx"
)

// ProactiveLine 预检中的订单行
type ProactiveLine struct {
	LineID      int64
	ProductCode string // 可为空，为空时走兜底候选
	Qty         decimal.Decimal
}

// ProactiveItem 预检项：From 为可能缺货的行，To 为指定的替代品（可选）
type ProactiveItem struct {
	From ProactiveLine
	To   *ProactiveLine
}

// PreflightCmd 下单前预检
type PreflightCmd struct {
	OrderID    string
	CustomerID string
	Lines      []ProactiveLine
}

// ApplyProactiveCheck 无状态的主动缺货决策，输出顺序与输入一致
// 指定替代品且有库存时直接 REPLACE，数量不超过库存；其余行走批处理
func (s *OrderService) ApplyProactiveCheck(ctx context.Context, items []ProactiveItem) ([]mdresolve.LineOutcome, error) {
	if len(items) == 0 {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "items must not be empty").
			WithDetail("items", "is required")
	}

	now := s.now()
	outcomes := make([]mdresolve.LineOutcome, len(items))
	stated := s.statedStock(ctx, items)

	var (
		batch   []*etorder.Shortage
		indexes []int
	)
	for i, it := range items {
		if it.To != nil && it.To.ProductCode != "" {
			if onHand, ok := stated[it.To.ProductCode]; ok && onHand.IsPositive() {
				outcomes[i] = statedReplacement(it, onHand, now)
				continue
			}
		}
		batch = append(batch, &etorder.Shortage{
			LineID:      it.From.LineID,
			ProductCode: it.From.ProductCode,
			Expected:    it.From.Qty,
			Picked:      decimal.Zero,
			At:          now,
		})
		indexes = append(indexes, i)
	}

	if len(batch) > 0 {
		for j, o := range s.resolver.ResolveAll(ctx, nil, batch, nil) {
			if o.OK() {
				o.Decision.Source = etorder.SourceProactive
				o.Decision.DecidedAt = now
			}
			outcomes[indexes[j]] = o
		}
	}
	return outcomes, nil
}

// PreflightCheck 下单前预检：预测可能缺货的行并生成主动决策
// 预测服务不可用时视为无缺货
func (s *OrderService) PreflightCheck(ctx context.Context, cmd PreflightCmd) ([]mdresolve.LineOutcome, error) {
	if len(cmd.Lines) == 0 {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "lines must not be empty").
			WithDetail("lines", "is required")
	}
	if s.predictor == nil {
		return []mdresolve.LineOutcome{}, nil
	}

	lines := make([]*etorder.OrderLine, 0, len(cmd.Lines))
	byID := make(map[int64]ProactiveLine, len(cmd.Lines))
	for _, l := range cmd.Lines {
		lines = append(lines, &etorder.OrderLine{LineID: l.LineID, ProductCode: l.ProductCode, Quantity: l.Qty})
		byID[l.LineID] = l
	}

	ids, err := s.predictor.PredictOrder(ctx, toPredictorOrder(cmd.OrderID, cmd.CustomerID, lines))
	if err != nil {
		s.logger.Warnf(ctx, "preflight prediction unavailable: %v", err)
		return []mdresolve.LineOutcome{}, nil
	}
	ids = knownLines(ids, func(id int64) bool {
		_, ok := byID[id]
		return ok
	})
	if len(ids) == 0 {
		return []mdresolve.LineOutcome{}, nil
	}

	items := make([]ProactiveItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, ProactiveItem{From: byID[id]})
	}
	return s.ApplyProactiveCheck(ctx, items)
}

// statedStock 查询指定替代品的库存；查询失败时返回空（这些行改走批处理）
func (s *OrderService) statedStock(ctx context.Context, items []ProactiveItem) map[string]decimal.Decimal {
	var codes []string
	for _, it := range items {
		if it.To != nil && it.To.ProductCode != "" {
			codes = append(codes, it.To.ProductCode)
		}
	}
	if len(codes) == 0 || s.inventory == nil {
		return nil
	}
	stock, err := s.inventory.OnHand(ctx, codes)
	if err != nil {
		s.logger.Warnf(ctx, "stated replacement stock lookup failed: %v", err)
		return nil
	}
	return stock
}

func statedReplacement(it ProactiveItem, onHand decimal.Decimal, now time.Time) mdresolve.LineOutcome {
	requested := it.From.Qty
	if it.To.Qty.IsPositive() {
		requested = it.To.Qty
	}
	qty := decimal.Min(onHand, requested)
	return mdresolve.LineOutcome{
		LineID: it.From.LineID,
		Decision: &etorder.Decision{
			LineID:         it.From.LineID,
			Action:         etorder.ActionReplace,
			Replacements:   []etorder.Replacement{{ProductCode: it.To.ProductCode, Score: 1}},
			ReplacementQty: qty,
			KeptQty:        decimal.Zero,
			Source:         etorder.SourceProactive,
			Reason:         fmt.Sprintf("stated replacement %s, %s on hand", it.To.ProductCode, onHand.String()),
			DecidedAt:      now,
		},
	}
}
