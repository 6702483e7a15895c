package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fulfilment/common/model"
)

// DecisionChannel 决策通知频道（按订单）
func DecisionChannel(orderID string) string {
	return fmt.Sprintf("shortage:decision:%s", orderID)
}

// DecisionNotifier 通过 Redis Pub/Sub 推送决策
type DecisionNotifier struct {
	rdb redis.UniversalClient
}

// NewDecisionNotifier 创建决策通知
func NewDecisionNotifier(rdb redis.UniversalClient) *DecisionNotifier {
	return &DecisionNotifier{rdb: rdb}
}

// NotifyDecision 发布到 shortage:decision:{orderId}
func (n *DecisionNotifier) NotifyDecision(ctx context.Context, notification *model.DecisionNotification) error {
	msgJSON, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := n.rdb.Publish(ctx, DecisionChannel(notification.OrderID), msgJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
