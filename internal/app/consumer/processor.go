package consumer

import (
	"context"
	"sync"
	"time"

	"fulfilment/internal/app/pkg/logger"
)

// Processor 处理器：接收消息，调用业务处理函数并确认
type Processor struct {
	cfg        ProcessorConfig
	handler    Handler
	source     MessageSource
	logger     logger.Logger
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewProcessor 创建处理器
func NewProcessor(cfg ProcessorConfig, handler Handler, source MessageSource, log logger.Logger) *Processor {
	return &Processor{
		cfg:        cfg.withDefaults(),
		handler:    handler,
		source:     source,
		logger:     log,
		shutdownCh: make(chan struct{}),
	}
}

// Start 启动处理协程
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) {
	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.loop(logger.WithWorkerID(ctx, i), i, inputChan)
	}
}

// SignalShutdown 进入 Drain 模式：处理完缓冲区剩余消息后退出
func (p *Processor) SignalShutdown() {
	close(p.shutdownCh)
}

// Wait 等待所有处理协程退出
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()

	for {
		select {
		case msg := <-inputChan:
			p.process(ctx, workerID, msg)

		case <-p.shutdownCh:
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, workerID, msg)
					count++
				default:
					p.logger.Infof(ctx, "[Processor-%d] drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

func (p *Processor) process(ctx context.Context, workerID int, msg *Message) {
	if msg == nil {
		return
	}
	start := time.Now()

	// 处理超时与关闭解耦：已拉取的消息处理完再退出
	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
	defer cancel()

	outcome := p.handler(procCtx, msg)
	if outcome == OutcomeAck {
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(procCtx, "[Processor-%d] ack message %s failed: %v", workerID, msg.ID, err)
		}
	}
	p.logger.Debugf(procCtx, "[Processor-%d] message %s processed, outcome=%d, duration=%v",
		workerID, msg.ID, outcome, time.Since(start))
}
