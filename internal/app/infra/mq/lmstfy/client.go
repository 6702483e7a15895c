package lmstfy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"

	"fulfilment/common/model"
	"fulfilment/internal/app/consumer"
)

// 发布参数
const (
	defaultTries = 3
	defaultTTL   = 3600
)

// Client Lmstfy 客户端封装（实现 consumer.MessageSource）
type Client struct {
	cli       *client.LmstfyClient
	namespace string
}

// NewClient 创建 Lmstfy 客户端
func NewClient(host string, port int, namespace, token string) *Client {
	return &Client{
		cli:       client.NewLmstfyClient(host, port, namespace, token),
		namespace: namespace,
	}
}

// Consume 拉取一条消息，超时未拉到返回 nil, nil
func (c *Client) Consume(queue string, timeout, ttr time.Duration) (*consumer.Message, error) {
	job, err := c.cli.Consume(queue, uint32(ttr.Seconds()), uint32(timeout.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("lmstfy consume failed: %w", err)
	}
	if job == nil {
		return nil, nil
	}
	return &consumer.Message{ID: job.ID, Queue: queue, Data: job.Data}, nil
}

// Ack 确认消息
func (c *Client) Ack(queue, jobID string) error {
	if err := c.cli.Ack(queue, jobID); err != nil {
		return fmt.Errorf("lmstfy ack failed: %w", err)
	}
	return nil
}

// Publish 发布消息，ttl/delay 单位秒
func (c *Client) Publish(queue string, data []byte, ttl, delay uint32) (string, error) {
	jobID, err := c.cli.Publish(queue, data, ttl, defaultTries, delay)
	if err != nil {
		return "", fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return jobID, nil
}

// Publisher 发布接口（便于替换）
type Publisher interface {
	Publish(queue string, data []byte, ttl, delay uint32) (string, error)
}

// DecisionPublisher 将决策通知投递到回调队列
type DecisionPublisher struct {
	pub   Publisher
	queue string
}

// NewDecisionPublisher 创建决策通知发布器
func NewDecisionPublisher(pub Publisher, queue string) *DecisionPublisher {
	return &DecisionPublisher{pub: pub, queue: queue}
}

// NotifyDecision 发布一条决策通知
func (p *DecisionPublisher) NotifyDecision(ctx context.Context, n *model.DecisionNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal decision notification failed: %w", err)
	}
	if _, err := p.pub.Publish(p.queue, data, defaultTTL, 0); err != nil {
		return err
	}
	return nil
}
