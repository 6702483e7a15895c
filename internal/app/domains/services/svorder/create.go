package svorder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/infra/predictor"
	"fulfilment/internal/app/pkg/idgen"
	"fulfilment/internal/app/pkg/logger"
)

// CreateOrderCmd 创建订单命令
type CreateOrderCmd struct {
	OrderID    string // 为空时生成
	CustomerID string
	Lines      []*etorder.OrderLine
}

// CreateOrderResult 创建结果：订单与预测缺货行的建议决策
type CreateOrderResult struct {
	Order      *etorder.Order
	Advisories []mdresolve.LineOutcome
}

// CreateOrder 创建订单（完整业务流程）
// 1. 构造订单实体并进入 PICKING
// 2. 缺货预测（失败视为无预测）
// 3. 对预测缺货行生成建议决策（PROACTIVE，不改变状态）
// 4. 落库
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCmd) (*CreateOrderResult, error) {
	now := s.now()
	if cmd.OrderID == "" {
		cmd.OrderID = idgen.NewOrderID()
	}
	ctx = logger.WithOrderID(ctx, cmd.OrderID)

	// 1. 订单实体
	order, err := etorder.NewOrder(cmd.OrderID, cmd.CustomerID, cmd.Lines, now)
	if err != nil {
		return nil, err
	}
	if err := order.TransitionTo(etorder.StatePicking, "order accepted for picking", now); err != nil {
		return nil, err
	}

	// 2. 缺货预测
	order.ExpectedShortages = s.predictShortages(ctx, order)

	// 3. 建议决策
	var advisories []mdresolve.LineOutcome
	if len(order.ExpectedShortages) > 0 {
		shortages := make([]*etorder.Shortage, 0, len(order.ExpectedShortages))
		for _, lineID := range order.ExpectedShortages {
			line, _ := order.Line(lineID)
			shortages = append(shortages, &etorder.Shortage{
				LineID:      line.LineID,
				ProductCode: line.ProductCode,
				Expected:    line.Quantity,
				Picked:      decimal.Zero,
				At:          now,
			})
		}
		advisories = s.resolver.ResolveAll(ctx, order, shortages, nil)
		for _, o := range advisories {
			if !o.OK() {
				s.logger.Warnf(ctx, "advisory for line %d failed: %v", o.LineID, o.Err)
				continue
			}
			o.Decision.Source = etorder.SourceProactive
			order.RecordDecision(o.Decision, now)
		}
	}

	// 4. 落库
	if err := s.orderModule.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("save order failed: %w", err)
	}
	s.logger.Infof(ctx, "order created: lines=%d, expected_shortages=%v", len(order.Lines), order.ExpectedShortages)

	return &CreateOrderResult{Order: order, Advisories: advisories}, nil
}

// predictShortages 调用预测服务，只保留订单中存在的行
func (s *OrderService) predictShortages(ctx context.Context, order *etorder.Order) []int64 {
	if s.predictor == nil {
		return nil
	}
	prediction, err := s.predictor.Predict(ctx, toPredictorOrder(order.ID, order.CustomerID, order.Lines))
	if err != nil {
		s.logger.Warnf(ctx, "stock prediction unavailable: %v", err)
		return nil
	}
	return knownLines(prediction.ShortageLines(), func(id int64) bool {
		_, ok := order.Line(id)
		return ok
	})
}

func toPredictorOrder(orderID, customerID string, lines []*etorder.OrderLine) predictor.Order {
	out := predictor.Order{OrderID: orderID, CustomerID: customerID}
	for _, l := range lines {
		out.Items = append(out.Items, predictor.OrderItem{
			LineID:      l.LineID,
			ProductCode: l.ProductCode,
			Qty:         l.Quantity.InexactFloat64(),
		})
	}
	return out
}

// knownLines 去重并过滤未知行
func knownLines(ids []int64, exists func(int64) bool) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	var out []int64
	for _, id := range ids {
		if _, dup := seen[id]; dup || !exists(id) {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
