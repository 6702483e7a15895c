package consumer

import (
	"context"
	"time"
)

// Message 消息结构（消费框架内部流转）
type Message struct {
	ID    string // 消息 ID
	Queue string // 队列名称
	Data  []byte // 原始 Job 数据
}

// MessageSource 消息源接口（适配不同 MQ）
type MessageSource interface {
	// Consume 消费消息（阻塞，直到拉取到消息或超时；超时返回 nil, nil）
	Consume(queue string, timeout, ttr time.Duration) (*Message, error)

	// Ack 确认消息（删除消息）
	Ack(queue, jobID string) error
}

// Outcome 单条消息的处理结果
type Outcome int

const (
	// OutcomeAck 处理完成（含不可重试的失败），ACK 消息
	OutcomeAck Outcome = iota
	// OutcomeRetry 可重试失败，不 ACK，由 TTR 到期后重新投递
	OutcomeRetry
)

// Handler 业务处理函数
type Handler func(ctx context.Context, msg *Message) Outcome
