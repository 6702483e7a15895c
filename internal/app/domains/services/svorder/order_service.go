package svorder

import (
	"context"
	"time"

	"fulfilment/common/model"
	"fulfilment/internal/app/domains/modules/mdorder"
	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/infra/predictor"
	"fulfilment/internal/app/pkg/logger"
)

// IntentParser 意图解析服务
type IntentParser interface {
	Parse(ctx context.Context, req intent.ParseRequest) (*intent.Result, error)
	ParseBatch(ctx context.Context, req intent.BatchRequest) (*intent.BatchResult, error)
}

// Predictor 缺货预测服务
type Predictor interface {
	Predict(ctx context.Context, order predictor.Order) (*predictor.Prediction, error)
	PredictOrder(ctx context.Context, order predictor.Order) ([]int64, error)
}

// Notifier 决策通知（尽力而为，失败只记录日志）
type Notifier interface {
	NotifyDecision(ctx context.Context, notification *model.DecisionNotification) error
}

// OrderService 订单履约服务，负责缺货决策的业务编排
type OrderService struct {
	orderModule *mdorder.OrderModule
	resolver    *mdresolve.Resolver
	sessions    mdsession.Store
	inventory   mdranker.InventoryReader
	intent      IntentParser
	predictor   Predictor
	notifiers   []Notifier
	logger      logger.Logger
	now         func() time.Time
}

// Option 服务选项
type Option func(*OrderService)

// WithIntentParser 注入意图解析；未注入时客户回复不产生表态
func WithIntentParser(p IntentParser) Option {
	return func(s *OrderService) { s.intent = p }
}

// WithPredictor 注入缺货预测；未注入时视为无预测
func WithPredictor(p Predictor) Option {
	return func(s *OrderService) { s.predictor = p }
}

// WithNotifiers 注入决策通知
func WithNotifiers(n ...Notifier) Option {
	return func(s *OrderService) { s.notifiers = append(s.notifiers, n...) }
}

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

// NewOrderService 创建订单服务实例
func NewOrderService(
	orderModule *mdorder.OrderModule,
	resolver *mdresolve.Resolver,
	sessions mdsession.Store,
	inventory mdranker.InventoryReader,
	log logger.Logger,
	opts ...Option,
) *OrderService {
	s := &OrderService{
		orderModule: orderModule,
		resolver:    resolver,
		sessions:    sessions,
		inventory:   inventory,
		logger:      log,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
