package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"fulfilment/common/model"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/pkg/errorx"
	"fulfilment/internal/app/pkg/logger"
)

// ShortageApplier 缺货处理（由 OrderService 实现）
type ShortageApplier interface {
	ApplyShortage(ctx context.Context, cmd svorder.ShortageCmd) (*svorder.ShortageResult, error)
}

// ShortageConsumer 拣货缺货消息消费者：Subscriber 拉取 → Processor 处理
type ShortageConsumer struct {
	subscriber *Subscriber
	processor  *Processor
	inputChan  chan *Message
	shutdownCh chan struct{}
	running    *atomic.Bool
	logger     logger.Logger
}

// NewShortageConsumer 创建缺货消费者
func NewShortageConsumer(
	subCfg SubscriberConfig,
	procCfg ProcessorConfig,
	source MessageSource,
	applier ShortageApplier,
	log logger.Logger,
) *ShortageConsumer {
	procCfg = procCfg.withDefaults()
	return &ShortageConsumer{
		subscriber: NewSubscriber(subCfg, source, log),
		processor:  NewProcessor(procCfg, NewShortageHandler(applier, log), source, log),
		inputChan:  make(chan *Message, procCfg.BufferSize),
		shutdownCh: make(chan struct{}),
		running:    atomic.NewBool(false),
		logger:     log,
	}
}

// Start 启动消费，阻塞直到 Shutdown 完成
func (c *ShortageConsumer) Start(ctx context.Context) {
	if !c.running.CAS(false, true) {
		return
	}
	c.logger.Infof(ctx, "[ShortageConsumer] started")

	// 1. 先启动 Processor，再启动 Subscriber
	c.processor.Start(ctx, c.inputChan)
	c.subscriber.Start(ctx, c.inputChan)

	// 2. 等待关闭
	<-c.shutdownCh
}

// Running 是否在运行
func (c *ShortageConsumer) Running() bool {
	return c.running.Load()
}

// Shutdown 优雅退出
func (c *ShortageConsumer) Shutdown() {
	if !c.running.CAS(true, false) {
		return
	}
	ctx := context.Background()
	c.logger.Infof(ctx, "[ShortageConsumer] shutting down")

	// 1. 停止拉取新消息
	c.subscriber.Stop()
	// 2. 等待 Subscriber 退出
	c.subscriber.Wait()
	// 3. Processor 进入 Drain 模式
	c.processor.SignalShutdown()
	// 4. 等待剩余消息处理完
	c.processor.Wait()

	close(c.shutdownCh)
	c.logger.Infof(ctx, "[ShortageConsumer] shutdown complete")
}

// NewShortageHandler 解析缺货消息并交给 ShortageApplier
// 解析失败与业务拒绝（校验、不存在、冲突）直接 ACK，其余失败等待重新投递
func NewShortageHandler(applier ShortageApplier, log logger.Logger) Handler {
	validate := validator.New()

	return func(ctx context.Context, msg *Message) Outcome {
		var job model.PickShortageJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			log.Errorf(ctx, "discard malformed shortage message %s: %v", msg.ID, err)
			return OutcomeAck
		}
		if job.RequestID != "" {
			ctx = logger.WithRequestID(ctx, job.RequestID)
		}
		ctx = logger.WithOrderID(ctx, job.OrderID)

		if err := validate.Struct(job); err != nil {
			log.Errorf(ctx, "discard invalid shortage message %s: %v", msg.ID, err)
			return OutcomeAck
		}

		cmd := svorder.ShortageCmd{
			OrderID:     job.OrderID,
			LineID:      job.LineID,
			ProductCode: job.ProductCode,
			ExpectedQty: decimal.NewFromFloat(job.ExpectedQty),
			PickedQty:   decimal.NewFromFloat(job.PickedQty),
			PickerID:    job.PickerID,
			Comment:     job.Comment,
		}
		if job.PickedAt > 0 {
			cmd.At = time.UnixMilli(job.PickedAt).UTC()
		}

		res, err := applier.ApplyShortage(ctx, cmd)
		if err != nil {
			if retryable(err) {
				log.Warnf(ctx, "shortage message %s will be redelivered: %v", msg.ID, err)
				return OutcomeRetry
			}
			log.Errorf(ctx, "shortage message %s rejected: %v", msg.ID, err)
			return OutcomeAck
		}
		log.Infof(ctx, "shortage message %s applied: line=%d, action=%s, replay=%v",
			msg.ID, job.LineID, res.Decision.Action, res.Replay)
		return OutcomeAck
	}
}

// retryable 业务拒绝不重试；依赖不可用、版本冲突和未分类错误重试
func retryable(err error) bool {
	e, ok := errorx.As(err)
	if !ok {
		return true
	}
	return e.Retryable || e.Code == errorx.CodeStaleVersion || e.Kind == errorx.KindInternal
}
