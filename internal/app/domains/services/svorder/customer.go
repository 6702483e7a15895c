package svorder

import (
	"context"
	"fmt"
	"strings"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

// CustomerResponseCmd 客户回复
type CustomerResponseCmd struct {
	OrderID   string
	SessionID string
	Texts     []string
	Context   map[string]interface{} // 附加的会话上下文
}

// CustomerResponseResult 客户回复处理结果
type CustomerResponseResult struct {
	Order      *etorder.Order
	Session    etsession.Session
	Preference *etsession.Preference // 未识别出表态时为 nil
	Outcomes   []mdresolve.LineOutcome
	Applied    []*etorder.Decision // 已按客户表态确认的决策
}

// ResolveWithCustomer 根据客户回复重新决策待确认行
// 1. 更新会话上下文
// 2. 解析客户文本为表态（解析失败视为无表态）
// 3. 记录表态到会话
// 4. 对待确认行重新决策，采纳客户来源的决策并确认
func (s *OrderService) ResolveWithCustomer(ctx context.Context, cmd CustomerResponseCmd) (*CustomerResponseResult, error) {
	if cmd.OrderID == "" || cmd.SessionID == "" {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "order id and session id are required")
	}
	texts := nonEmpty(cmd.Texts)
	if len(texts) == 0 {
		return nil, errorx.Validation(errorx.CodeInvalidRequest, "at least one text is required").
			WithDetail("texts", "is required")
	}
	ctx = logger.WithSessionID(logger.WithOrderID(ctx, cmd.OrderID), cmd.SessionID)

	// 1. 会话上下文
	fields := map[string]interface{}{etsession.FieldOrderNumber: cmd.OrderID}
	for k, v := range cmd.Context {
		fields[k] = v
	}
	session, err := s.sessions.Touch(ctx, cmd.SessionID, fields)
	if err != nil {
		return nil, err
	}

	// 2. 解析表态，未指明行时取会话上下文中正在讨论的行
	pref := s.parsePreference(ctx, session, texts)
	if pref != nil && pref.LineID == 0 {
		pref.LineID = etsession.LineIDOf(session.Context)
	}

	// 3. 记录表态
	if pref != nil {
		if session, err = s.sessions.SetPreference(ctx, cmd.SessionID, *pref); err != nil {
			return nil, err
		}
	}

	// 4. 重新决策
	result := &CustomerResponseResult{Session: session, Preference: pref}
	err = s.orderModule.WithOrderLock(cmd.OrderID, func() error {
		order, err := s.orderModule.GetOrder(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		result.Order = order
		if order.State.IsTerminal() {
			return errorx.Conflict(errorx.CodeIllegalTransition,
				"order %s is already %s", order.ID, order.State)
		}

		pending := order.PendingLines()
		if len(pending) == 0 || session.ActivePreference() == nil {
			return nil
		}
		shortages := make([]*etorder.Shortage, 0, len(pending))
		for _, lineID := range pending {
			shortages = append(shortages, order.LastShortage(lineID))
		}
		result.Outcomes = s.resolver.ResolveAll(ctx, order, shortages, &session)

		now := s.now()
		for _, o := range result.Outcomes {
			if !o.OK() || o.Decision.Source != etorder.SourceCustomer {
				continue
			}
			o.Decision.Confirmed = true
			result.Applied = append(result.Applied, order.RecordDecision(o.Decision, now))
		}
		if len(result.Applied) == 0 {
			return nil
		}
		if err := order.Settle("customer responded", now); err != nil {
			return err
		}
		if err := s.orderModule.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Applied) > 0 {
		s.logger.Infof(ctx, "customer response applied: decisions=%d, state=%s", len(result.Applied), result.Order.State)
		s.notify(ctx, result.Order, result.Applied...)
	}
	return result, nil
}

// parsePreference 单条用 Parse，多条用 ParseBatch；后出现的表态覆盖前面的
func (s *OrderService) parsePreference(ctx context.Context, session etsession.Session, texts []string) *etsession.Preference {
	if s.intent == nil {
		return nil
	}
	now := s.now()
	if len(texts) == 1 {
		res, err := s.intent.Parse(ctx, intent.ParseRequest{Text: texts[0], Context: session.Context, SessionID: session.ID})
		if err != nil {
			s.logger.Warnf(ctx, "intent parse unavailable: %v", err)
			return nil
		}
		return intent.ToPreference(res, texts[0], now)
	}
	res, err := s.intent.ParseBatch(ctx, intent.BatchRequest{Texts: texts, Context: session.Context, SessionID: session.ID})
	if err != nil {
		s.logger.Warnf(ctx, "intent batch parse unavailable: %v", err)
		return nil
	}
	return intent.LastPreference(res.Results, texts, now)
}

func nonEmpty(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
