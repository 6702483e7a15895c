package response

import (
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/domains/services/svsubstitution"
	"fulfilment/internal/app/pkg/errorx"
)

// FromOrderEntity 订单实体转换为响应
func FromOrderEntity(order *etorder.Order) *OrderResponse {
	resp := &OrderResponse{
		OrderID:           order.ID,
		CustomerID:        order.CustomerID,
		State:             string(order.State),
		Version:           order.Version,
		Lines:             fromLines(order.Lines),
		Decisions:         make([]*DecisionResponse, 0, len(order.Decisions)),
		PendingLines:      order.PendingLines(),
		ExpectedShortages: order.ExpectedShortages,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, d := range order.ActiveDecisions() {
		resp.Decisions = append(resp.Decisions, FromDecision(d))
	}
	if resp.PendingLines == nil {
		resp.PendingLines = []int64{}
	}
	return resp
}

// FromDecision 决策转换为响应
func FromDecision(d *etorder.Decision) *DecisionResponse {
	return &DecisionResponse{
		LineID:         d.LineID,
		Action:         string(d.Action),
		ReplacementQty: d.ReplacementQty.InexactFloat64(),
		KeptQty:        d.KeptQty.InexactFloat64(),
		Replacements:   fromReplacements(d.Replacements),
		Source:         string(d.Source),
		Confirmed:      d.Confirmed,
		Reason:         d.Reason,
		DecidedAt:      d.DecidedAt,
	}
}

// FromCreateOrderResult 创建订单结果转换为响应
func FromCreateOrderResult(res *svorder.CreateOrderResult) *CreateOrderResponse {
	resp := &CreateOrderResponse{
		OrderID:   res.Order.ID,
		State:     string(res.Order.State),
		Items:     fromLines(res.Order.Lines),
		Shortages: make([]*ShortageDecisionBrief, 0, len(res.Advisories)),
	}
	for _, o := range res.Advisories {
		if !o.OK() {
			continue
		}
		brief := &ShortageDecisionBrief{
			LineID:       o.LineID,
			Action:       string(o.Decision.Action),
			Replacements: make([]*ReplacementSummary, 0, len(o.Decision.Replacements)),
		}
		unit := lineUnit(res.Order, o.LineID)
		for _, r := range o.Decision.Replacements {
			brief.Replacements = append(brief.Replacements, &ReplacementSummary{
				ProductCode: r.ProductCode,
				Name:        r.Name,
				Unit:        unit,
			})
		}
		resp.Shortages = append(resp.Shortages, brief)
	}
	return resp
}

// FromShortageResult 缺货处理结果转换为响应
func FromShortageResult(res *svorder.ShortageResult) *PickShortageResponse {
	d := res.Decision
	resp := &PickShortageResponse{
		OrderID:       res.Order.ID,
		LineID:        d.LineID,
		ShortageQty:   res.ShortageQty.InexactFloat64(),
		Action:        string(d.Action),
		Replacements:  make([]*ReplacementOption, 0, len(d.Replacements)),
		Notifications: res.Notifications,
		Decision:      FromDecision(d),
		OrderState:    string(res.Order.State),
		Replay:        res.Replay,
	}
	unit := lineUnit(res.Order, d.LineID)
	for _, r := range d.Replacements {
		resp.Replacements = append(resp.Replacements, &ReplacementOption{
			LineID:       d.LineID,
			ProductCode:  r.ProductCode,
			Name:         r.Name,
			AvailableQty: d.ReplacementQty.InexactFloat64(),
			Unit:         unit,
		})
	}
	return resp
}

// FromLineOutcomes 批量决策结果转换为响应（顺序与输入一致）
func FromLineOutcomes(outcomes []mdresolve.LineOutcome) *ProactiveResponse {
	resp := &ProactiveResponse{Decisions: make([]*LineDecision, 0, len(outcomes))}
	for _, o := range outcomes {
		ld := &LineDecision{LineID: o.LineID}
		if o.OK() {
			ld.Action = string(o.Decision.Action)
			ld.ReplacementQty = o.Decision.ReplacementQty.InexactFloat64()
			ld.Replacements = fromReplacements(o.Decision.Replacements)
		} else {
			ld.Error = &LineError{Type: string(errorx.KindOf(o.Err)), Message: lineErrorMessage(o.Err)}
		}
		resp.Decisions = append(resp.Decisions, ld)
	}
	return resp
}

// FromCustomerResponseResult 客户回复结果转换为响应
func FromCustomerResponseResult(res *svorder.CustomerResponseResult) *CustomerResponseResponse {
	resp := &CustomerResponseResponse{
		OrderID:    res.Order.ID,
		SessionID:  res.Session.ID,
		Stage:      string(res.Session.Stage),
		Preference: fromPreference(res.Preference),
		OrderState: string(res.Order.State),
		Applied:    make([]*DecisionResponse, 0, len(res.Applied)),
		Pending:    res.Order.PendingLines(),
	}
	for _, d := range res.Applied {
		resp.Applied = append(resp.Applied, FromDecision(d))
	}
	if resp.Pending == nil {
		resp.Pending = []int64{}
	}
	return resp
}

// FromEvents 事件列表转换为响应
func FromEvents(events []*etorder.Event) []*EventResponse {
	out := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, &EventResponse{ID: e.ID, Type: string(e.Type), Data: e.Data, At: e.At})
	}
	return out
}

// FromSession 会话快照转换为响应
func FromSession(s etsession.Session) *SessionResponse {
	return &SessionResponse{
		SessionID:   s.ID,
		Stage:       string(s.Stage),
		OrderNumber: s.OrderNumber,
		Context:     s.Context,
		Preference:  fromPreference(s.Preference),
		Closing:     s.Closing,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

// FromSuggestion 推荐结果转换为响应
func FromSuggestion(s *mdranker.Suggestion) *SuggestResponse {
	resp := &SuggestResponse{SKU: s.SKU, Recommendations: make([]*Recommendation, 0, len(s.Recommendations))}
	for _, c := range s.Recommendations {
		resp.Recommendations = append(resp.Recommendations, &Recommendation{SKU: c.ProductCode, Score: c.Score, Name: c.Name})
	}
	return resp
}

// FromHealth 健康状态转换为响应
func FromHealth(h svsubstitution.Health) *HealthResponse {
	return &HealthResponse{Status: h.Status, CatalogSize: h.CatalogSize, ModelVersion: h.ModelVersion}
}

func fromLines(lines []*etorder.OrderLine) []*OrderLine {
	out := make([]*OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, &OrderLine{
			LineID:      l.LineID,
			ProductCode: l.ProductCode,
			Name:        l.Name,
			Qty:         l.Quantity.InexactFloat64(),
			Unit:        l.Unit,
		})
	}
	return out
}

func fromReplacements(rs []etorder.Replacement) []*ReplacementResponse {
	if len(rs) == 0 {
		return nil
	}
	out := make([]*ReplacementResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, &ReplacementResponse{ProductCode: r.ProductCode, Name: r.Name, Score: r.Score})
	}
	return out
}

func fromPreference(p *etsession.Preference) *PreferenceResponse {
	if p == nil {
		return nil
	}
	return &PreferenceResponse{Kind: string(p.Kind), ReplacementCode: p.ReplacementCode, LineID: p.LineID, At: p.At}
}

func lineUnit(order *etorder.Order, lineID int64) string {
	if order == nil {
		return ""
	}
	if l, ok := order.Line(lineID); ok {
		return l.Unit
	}
	return ""
}

func lineErrorMessage(err error) string {
	if e, ok := errorx.As(err); ok && e.Kind != errorx.KindInternal {
		return e.Message
	}
	return "internal error"
}
