package svorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fulfilment/common/model"
	"fulfilment/internal/app/domains/entity/etcandidate"
	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/domains/modules/mdorder"
	"fulfilment/internal/app/domains/modules/mdpolicy"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/domains/repo/rporder"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/infra/predictor"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

var t0 = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

// fakeRanker 按商品返回固定候选；gate 非空时阻塞到被放行
type fakeRanker struct {
	mu         sync.Mutex
	candidates map[string][]etcandidate.Candidate
	calls      int
	entered    chan struct{}
	gate       chan struct{}
}

func (r *fakeRanker) Rank(ctx context.Context, code string, qty decimal.Decimal, k int) ([]etcandidate.Candidate, error) {
	r.mu.Lock()
	r.calls++
	entered, gate := r.entered, r.gate
	r.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	out := r.candidates[code]
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (r *fakeRanker) block() (entered, gate chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entered, r.gate = make(chan struct{}, 1), make(chan struct{})
	return r.entered, r.gate
}

type fakePredictor struct {
	shortages []int64
	lineIDs   []int64
	err       error
}

func (p *fakePredictor) Predict(ctx context.Context, o predictor.Order) (*predictor.Prediction, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := &predictor.Prediction{Prediction: "partial"}
	for _, it := range o.Items {
		inStock := true
		for _, id := range p.shortages {
			if id == it.LineID {
				inStock = false
			}
		}
		out.Items = append(out.Items, predictor.ItemPrediction{LineID: it.LineID, ProductCode: it.ProductCode, InStock: inStock})
	}
	return out, nil
}

func (p *fakePredictor) PredictOrder(ctx context.Context, o predictor.Order) ([]int64, error) {
	return p.lineIDs, p.err
}

type fakeIntent struct {
	intents  map[string]string                 // text → intent
	entities map[string]map[string]interface{} // text → entities
	err      error
}

func (f *fakeIntent) Parse(ctx context.Context, req intent.ParseRequest) (*intent.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &intent.Result{Intent: intent.Intent{Name: f.intents[req.Text]}, Entities: f.entities[req.Text], SessionID: req.SessionID}, nil
}

func (f *fakeIntent) ParseBatch(ctx context.Context, req intent.BatchRequest) (*intent.BatchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &intent.BatchResult{Count: len(req.Texts)}
	for _, t := range req.Texts {
		out.Results = append(out.Results, intent.Result{Intent: intent.Intent{Name: f.intents[t]}, Entities: f.entities[t]})
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*model.DecisionNotification
}

func (n *recordingNotifier) NotifyDecision(ctx context.Context, m *model.DecisionNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
	return nil
}

type staticInventory map[string]decimal.Decimal

func (s staticInventory) OnHand(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	for _, c := range codes {
		if q, ok := s[c]; ok {
			out[c] = q
		}
	}
	return out, nil
}

type fixture struct {
	svc      *OrderService
	ranker   *fakeRanker
	sessions *mdsession.MemoryStore
	events   *rpevent.MemoryEventRepository
	notifier *recordingNotifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ranker := &fakeRanker{candidates: map[string][]etcandidate.Candidate{
		"MILK":   {{ProductCode: "MILK-SEMI", Score: 0.42}, {ProductCode: "OAT", Score: 0.2}},
		"YOGURT": {{ProductCode: "YOGURT-GR", Score: 0.81}, {ProductCode: "YOGURT-VAN", Score: 0.66}},
	}}
	events := rpevent.NewMemoryEventRepository()
	module := mdorder.NewOrderModule(rporder.NewMemoryOrderRepository(events), events)
	resolver := mdresolve.NewResolver(ranker, mdpolicy.New(mdpolicy.Config{AcceptThreshold: 0.5, MaxReplacements: 3}),
		mdresolve.Config{Parallelism: 4, K: 5}, logger.NewNop())
	sessions := mdsession.NewMemoryStore(mdsession.Config{}, func() time.Time { return t0 })
	notifier := &recordingNotifier{}

	opts = append([]Option{WithClock(func() time.Time { return t0 }), WithNotifiers(notifier)}, opts...)
	svc := NewOrderService(module, resolver, sessions, staticInventory{"MILK-ORG": decimal.NewFromInt(2)}, logger.NewNop(), opts...)
	return &fixture{svc: svc, ranker: ranker, sessions: sessions, events: events, notifier: notifier}
}

func (f *fixture) createOrder(t *testing.T) *etorder.Order {
	t.Helper()
	res, err := f.svc.CreateOrder(context.Background(), CreateOrderCmd{
		OrderID:    "ORD-1",
		CustomerID: "CUST-1",
		Lines: []*etorder.OrderLine{
			{LineID: 10, ProductCode: "MILK", Quantity: decimal.NewFromInt(5), Unit: "pcs"},
			{LineID: 20, ProductCode: "YOGURT", Quantity: decimal.NewFromInt(2), Unit: "pcs"},
			{LineID: 30, ProductCode: "YOGURT-VAN", Quantity: decimal.NewFromInt(1), Unit: "pcs"},
		},
	})
	require.NoError(t, err)
	return res.Order
}

func shortageCmd(lineID int64, expected, picked int64) ShortageCmd {
	return ShortageCmd{
		OrderID:     "ORD-1",
		LineID:      lineID,
		ExpectedQty: decimal.NewFromInt(expected),
		PickedQty:   decimal.NewFromInt(picked),
		PickerID:    "picker-1",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	assert.Equal(t, etorder.StatePicking, order.State)
	assert.Empty(t, order.ExpectedShortages)

	events, err := f.svc.Events(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, etorder.EventOrderCreated, events[0].Type)
	assert.Equal(t, etorder.EventStateChanged, events[1].Type)
}

func TestCreateOrder_GeneratesID(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CreateOrder(context.Background(), CreateOrderCmd{
		Lines: []*etorder.OrderLine{{LineID: 1, ProductCode: "MILK", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)

	_, err = f.svc.CreateOrder(context.Background(), CreateOrderCmd{OrderID: "X"})
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))
}

func TestCreateOrder_PredictedShortagesGetAdvisories(t *testing.T) {
	f := newFixture(t, WithPredictor(&fakePredictor{shortages: []int64{20, 99}}))
	order := f.createOrder(t)

	assert.Equal(t, etorder.StatePicking, order.State, "advisories do not change state")
	assert.Equal(t, []int64{20}, order.ExpectedShortages)

	d := order.ActiveDecision(20)
	require.NotNil(t, d)
	assert.Equal(t, etorder.SourceProactive, d.Source)
	assert.Equal(t, etorder.ActionReplace, d.Action)
	assert.True(t, order.Lines[1].Quantity.Equal(decimal.NewFromInt(2)), "advisory leaves quantity alone")
	assert.Empty(t, order.PendingLines())

	events, err := f.svc.Events(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.EventAdvisoryRecorded, events[len(events)-1].Type)
}

func TestCreateOrder_PredictorDown(t *testing.T) {
	f := newFixture(t, WithPredictor(&fakePredictor{err: errorx.DependencyUnavailable("predictor down")}))
	order := f.createOrder(t)
	assert.Empty(t, order.ExpectedShortages)
	assert.Empty(t, order.Decisions)
}

func TestApplyShortage_KeepPartialWhenNothingAcceptable(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)

	res, err := f.svc.ApplyShortage(context.Background(), shortageCmd(10, 5, 4))
	require.NoError(t, err)

	assert.Equal(t, etorder.ActionKeep, res.Decision.Action)
	assert.True(t, res.Decision.KeptQty.Equal(decimal.NewFromInt(4)))
	assert.True(t, res.ShortageQty.Equal(decimal.NewFromInt(1)))
	assert.True(t, res.Decision.Confirmed)
	assert.Equal(t, etorder.StateResolved, res.Order.State)
	assert.True(t, res.Order.Lines[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "Order ORD-1 line 10 flagged as short_pick (shortage 1.00 units).", res.Notifications[0])

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "KEEP", f.notifier.sent[0].Action)
	assert.Equal(t, "RESOLVED", f.notifier.sent[0].OrderState)
}

func TestApplyShortage_ReplaceAwaitsDecision(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)

	res, err := f.svc.ApplyShortage(context.Background(), shortageCmd(20, 2, 0))
	require.NoError(t, err)

	d := res.Decision
	assert.Equal(t, etorder.ActionReplace, d.Action)
	assert.Equal(t, []string{"YOGURT-GR", "YOGURT-VAN"}, d.ReplacementCodes())
	assert.True(t, d.ReplacementQty.Equal(decimal.NewFromInt(2)))
	assert.False(t, d.Confirmed)
	assert.Equal(t, etorder.StateAwaitingDecision, res.Order.State)
	assert.True(t, res.Order.Lines[1].Quantity.Equal(decimal.NewFromInt(2)), "unconfirmed decision leaves quantity")
	assert.Contains(t, res.Notifications, "Prepared 2 replacement option(s) for Communication Orchestrator.")
}

func TestApplyShortage_Replay(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)
	ctx := context.Background()

	first, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 5, 4))
	require.NoError(t, err)
	before, err := f.svc.Events(ctx, "ORD-1")
	require.NoError(t, err)

	second, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 5, 4))
	require.NoError(t, err)
	assert.True(t, second.Replay)
	assert.Equal(t, first.Decision.Seq, second.Decision.Seq)
	assert.Equal(t, first.Decision.Action, second.Decision.Action)

	after, err := f.svc.Events(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Len(t, after, len(before), "replay appends no events")
	assert.Len(t, f.notifier.sent, 1)
}

func TestApplyShortage_DifferentCommentIsNotReplay(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 5, 4))
	require.NoError(t, err)

	cmd := shortageCmd(10, 5, 4)
	cmd.Comment = "found one more behind the shelf"
	res, err := f.svc.ApplyShortage(ctx, cmd)
	require.NoError(t, err)
	assert.False(t, res.Replay)
	assert.Len(t, f.notifier.sent, 2)
}

func TestApplyShortage_Validation(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 4, 5))
	require.Error(t, err)
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))

	_, err = f.svc.ApplyShortage(ctx, shortageCmd(99, 4, 1))
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))

	cmd := shortageCmd(10, 4, 1)
	cmd.OrderID = "ORD-404"
	_, err = f.svc.ApplyShortage(ctx, cmd)
	assert.True(t, errors.Is(err, errorx.ErrOrderNotFound))

	order, err := f.svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Empty(t, order.Shortages, "rejected shortages leave no trace")
	assert.Equal(t, int64(1), order.Version)
}

func TestApplyShortage_ConcurrentLinesSerialisedPerOrder(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for _, lineID := range []int64{10, 20, 30} {
		wg.Add(1)
		go func(lineID int64) {
			defer wg.Done()
			_, err := f.svc.ApplyShortage(context.Background(), shortageCmd(lineID, 1, 1))
			errs <- err
		}(lineID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	order, err := f.svc.GetOrder(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Len(t, order.Shortages, 3)
	assert.Len(t, order.ActiveDecisions(), 3)
}

func TestApplyProactiveCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcomes, err := f.svc.ApplyProactiveCheck(ctx, []ProactiveItem{
		{From: ProactiveLine{LineID: 1, Qty: decimal.NewFromInt(4)}},
		{From: ProactiveLine{LineID: 2, ProductCode: "MILK", Qty: decimal.NewFromInt(3)},
			To: &ProactiveLine{ProductCode: "MILK-ORG", Qty: decimal.NewFromInt(3)}},
		{From: ProactiveLine{LineID: 3, ProductCode: "MILK", Qty: decimal.NewFromInt(3)},
			To: &ProactiveLine{ProductCode: "OUT-OF-STOCK"}},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	// 无商品编码：兜底候选，全部缺货数量替换
	first := outcomes[0]
	require.True(t, first.OK())
	assert.Equal(t, int64(1), first.LineID)
	assert.Equal(t, etorder.ActionReplace, first.Decision.Action)
	assert.Equal(t, "4", first.Decision.ReplacementQty.String())
	assert.Equal(t, []string{"REPL_001", "REPL_007", "REPL_015"}, first.Decision.ReplacementCodes())
	assert.Equal(t, etorder.SourceProactive, first.Decision.Source)

	// 指定替代品：数量受库存限制
	second := outcomes[1]
	require.True(t, second.OK())
	assert.Equal(t, []string{"MILK-ORG"}, second.Decision.ReplacementCodes())
	assert.True(t, second.Decision.ReplacementQty.Equal(decimal.NewFromInt(2)))

	// 指定替代品无库存：回到常规决策
	third := outcomes[2]
	require.True(t, third.OK())
	assert.Equal(t, etorder.ActionDelete, third.Decision.Action)

	_, err = f.svc.ApplyProactiveCheck(ctx, nil)
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))
}

func TestPreflightCheck(t *testing.T) {
	lines := []ProactiveLine{
		{LineID: 1, ProductCode: "MILK", Qty: decimal.NewFromInt(2)},
		{LineID: 2, ProductCode: "YOGURT", Qty: decimal.NewFromInt(1)},
	}

	f := newFixture(t, WithPredictor(&fakePredictor{lineIDs: []int64{2, 2, 7}}))
	outcomes, err := f.svc.PreflightCheck(context.Background(), PreflightCmd{OrderID: "ORD-9", Lines: lines})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, int64(2), outcomes[0].LineID)
	assert.Equal(t, etorder.ActionReplace, outcomes[0].Decision.Action)

	down := newFixture(t, WithPredictor(&fakePredictor{err: errors.New("timeout")}))
	outcomes, err = down.svc.PreflightCheck(context.Background(), PreflightCmd{Lines: lines})
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestResolveWithCustomer_DeclineDeletesLine(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{intents: map[string]string{"no thanks": "decline_substitution"}}))
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)

	res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{"no thanks"}})
	require.NoError(t, err)
	require.NotNil(t, res.Preference)
	assert.Equal(t, etsession.PreferenceDecline, res.Preference.Kind)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, etorder.ActionDelete, res.Applied[0].Action)
	assert.Equal(t, etorder.SourceCustomer, res.Applied[0].Source)
	assert.True(t, res.Applied[0].Confirmed)
	assert.Equal(t, etorder.StateResolved, res.Order.State)
	assert.True(t, res.Order.Lines[1].Quantity.IsZero())

	// 历史保留两条决策
	assert.Len(t, res.Order.Decisions, 2)
	assert.Equal(t, "ORD-1", res.Session.OrderNumber)
}

func TestResolveWithCustomer_AcceptStatedReplacement(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{intents: map[string]string{"yes": "accept_substitution", "ok": "order_status"}}))
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 1))
	require.NoError(t, err)

	res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{"yes", "ok"}})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	d := res.Applied[0]
	assert.Equal(t, etorder.ActionReplace, d.Action)
	assert.Equal(t, []string{"YOGURT-GR", "YOGURT-VAN"}, d.ReplacementCodes())
	assert.True(t, res.Order.Lines[1].Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, etorder.StateResolved, res.Order.State)
}

func TestResolveWithCustomer_StatedReplacementOnlyForMatchingLine(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{
		intents:  map[string]string{"vanilla yogurt instead": "accept_substitution"},
		entities: map[string]map[string]interface{}{"vanilla yogurt instead": {"replacement_sku": "YOGURT-VAN"}},
	}))
	f.createOrder(t)
	ctx := context.Background()

	milk, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 5, 0))
	require.NoError(t, err)
	require.Equal(t, etorder.ActionDelete, milk.Decision.Action)
	_, err = f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)

	res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{"vanilla yogurt instead"}})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, int64(20), res.Applied[0].LineID)
	assert.Equal(t, []string{"YOGURT-VAN"}, res.Applied[0].ReplacementCodes())
	assert.True(t, res.Applied[0].Confirmed)

	// 牛奶行保持待确认的删除决策
	assert.Equal(t, []int64{10}, res.Order.PendingLines())
	d := res.Order.ActiveDecision(10)
	require.NotNil(t, d)
	assert.Equal(t, etorder.ActionDelete, d.Action)
	assert.False(t, d.Confirmed)
	assert.True(t, res.Order.Lines[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, etorder.StateAwaitingDecision, res.Order.State)
}

func TestResolveWithCustomer_PreferenceScopedByContextLine(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{intents: map[string]string{"no thanks": "decline_substitution"}}))
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(10, 5, 0))
	require.NoError(t, err)
	_, err = f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)

	res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{
		OrderID:   "ORD-1",
		SessionID: "s1",
		Texts:     []string{"no thanks"},
		Context:   map[string]interface{}{etsession.FieldLineID: float64(20)},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Preference)
	assert.Equal(t, int64(20), res.Preference.LineID)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, int64(20), res.Applied[0].LineID)
	assert.Equal(t, etorder.ActionDelete, res.Applied[0].Action)
	assert.Equal(t, []int64{10}, res.Order.PendingLines())
}

func TestResolveWithCustomer_ParserDownLeavesDecisionsPending(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{err: errorx.DependencyUnavailable("intent down")}))
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)

	res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{"no"}})
	require.NoError(t, err)
	assert.Nil(t, res.Preference)
	assert.Empty(t, res.Applied)
	assert.Equal(t, etorder.StateAwaitingDecision, res.Order.State)

	_, err = f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{" "}})
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))
}

func TestResolveWithCustomer_SessionDeletedMidFlight(t *testing.T) {
	f := newFixture(t, WithIntentParser(&fakeIntent{intents: map[string]string{"no": "decline_substitution"}}))
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)

	entered, gate := f.ranker.block()
	type result struct {
		res *CustomerResponseResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.svc.ResolveWithCustomer(ctx, CustomerResponseCmd{OrderID: "ORD-1", SessionID: "s1", Texts: []string{"no"}})
		done <- result{res, err}
	}()

	<-entered
	ack, err := f.sessions.Delete(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, ack.Message, "Session will expire")
	close(gate)

	r := <-done
	require.NoError(t, r.err)
	require.Len(t, r.res.Applied, 1, "in-flight batch keeps its session snapshot")
	assert.Equal(t, etorder.ActionDelete, r.res.Applied[0].Action)

	// 关闭中的会话不再提供表态
	closing, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, closing.Closing)
	assert.Nil(t, closing.ActivePreference())
}

func TestFulfilAndCancel(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)
	ctx := context.Background()

	_, err := f.svc.CancelOrder(ctx, "ORD-1", "")
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err), "PICKING cannot be cancelled")

	_, err = f.svc.ApplyShortage(ctx, shortageCmd(20, 2, 0))
	require.NoError(t, err)
	_, err = f.svc.FulfillOrder(ctx, "ORD-1", "")
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err), "pending decisions block fulfilment")

	order, err := f.svc.CancelOrder(ctx, "ORD-1", "")
	require.NoError(t, err)
	assert.Equal(t, etorder.StateCancelled, order.State)
	require.Len(t, order.Decisions, 1, "cancellation keeps recorded decisions")
	assert.Equal(t, etorder.ActionReplace, order.Decisions[0].Action)

	again, err := f.svc.CancelOrder(ctx, "ORD-1", "")
	require.NoError(t, err)
	assert.Equal(t, order.Version, again.Version)
}

func TestFulfilWithoutShortages(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)

	order, err := f.svc.FulfillOrder(context.Background(), "ORD-1", "")
	require.NoError(t, err)
	assert.Equal(t, etorder.StateFulfilled, order.State)

	_, err = f.svc.ApplyShortage(context.Background(), shortageCmd(10, 5, 4))
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err))
}

func TestCreateClaim(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t)
	ctx := context.Background()

	err := f.svc.CreateClaim(ctx, &etorder.Claim{OrderID: "ORD-1", CustomerID: "CUST-1", Channel: "nlu", Description: "Missing oat milk"})
	require.Error(t, err)
	assert.Equal(t, errorx.KindNotImplemented, errorx.KindOf(err))
	assert.False(t, errorx.IsRetryable(err))

	e, ok := errorx.As(err)
	require.True(t, ok)
	stub, ok := e.Payload.(etorder.ClaimStub)
	require.True(t, ok)
	assert.Equal(t, "/api/orders/claims/create", stub.Endpoint)
	assert.Equal(t, "NOT_IMPLEMENTED", stub.Status)

	order, err := f.svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.Version, "claims never mutate the order")

	events, err := f.svc.Events(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.EventClaimRejected, events[len(events)-1].Type)

	err = f.svc.CreateClaim(ctx, &etorder.Claim{OrderID: "ORD-404"})
	assert.Equal(t, errorx.KindNotImplemented, errorx.KindOf(err))

	err = f.svc.CreateClaim(ctx, &etorder.Claim{})
	assert.Equal(t, errorx.KindValidation, errorx.KindOf(err))
}

func TestEvents_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Events(context.Background(), "ORD-404")
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err), fmt.Sprintf("%v", err))
}
