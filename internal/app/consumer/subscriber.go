package consumer

import (
	"context"
	"sync"
	"time"

	"fulfilment/internal/app/pkg/logger"
)

// Subscriber 订阅者：从消息队列拉取消息，转发给 Processor
type Subscriber struct {
	cfg        SubscriberConfig
	source     MessageSource
	logger     logger.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSubscriber 创建订阅者
func NewSubscriber(cfg SubscriberConfig, source MessageSource, log logger.Logger) *Subscriber {
	return &Subscriber{
		cfg:    cfg.withDefaults(),
		source: source,
		logger: log,
	}
}

// Start 启动订阅循环
func (s *Subscriber) Start(parentCtx context.Context, inputChan chan<- *Message) {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel

	s.logger.Infof(ctx, "[Subscriber] starting %d workers for queue %s", s.cfg.Concurrency, s.cfg.QueueName)
	for i := 0; i < s.cfg.Concurrency; i++ {
		s.wg.Add(1)
		go s.loop(logger.WithWorkerID(ctx, i), i, inputChan)
	}
}

// Stop 停止拉取新消息
func (s *Subscriber) Stop() {
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
}

// Wait 等待所有订阅协程退出
func (s *Subscriber) Wait() {
	s.wg.Wait()
}

func (s *Subscriber) loop(ctx context.Context, workerID int, inputChan chan<- *Message) {
	defer s.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		// 1. 拉取消息（带超时）
		msg, err := s.source.Consume(s.cfg.QueueName, s.cfg.Timeout, s.cfg.TTR)
		if err != nil {
			s.logger.Warnf(ctx, "[Subscriber-%d] consume error: %v, retrying", workerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.ErrorBackoff):
				continue
			}
		}
		if msg == nil {
			continue
		}

		// 2. 发送给 Processor，关闭时放弃（未 ACK 的消息由 TTR 重新投递）
		select {
		case inputChan <- msg:
		case <-ctx.Done():
			s.logger.Warnf(ctx, "[Subscriber-%d] dropping message %s due to shutdown", workerID, msg.ID)
			return
		}
	}
}
