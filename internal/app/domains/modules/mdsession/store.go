package mdsession

import (
	"context"
	"time"

	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/pkg/errorx"
)

// 默认参数
const (
	DefaultIdleTTL     = 30 * time.Minute
	DefaultDeleteGrace = time.Minute
)

// Store 会话存储，所有读取均返回快照
type Store interface {
	// Touch 创建或更新会话上下文（字段级后写覆盖）
	Touch(ctx context.Context, id string, fields map[string]interface{}) (etsession.Session, error)
	// SetPreference 记录客户表态
	SetPreference(ctx context.Context, id string, pref etsession.Preference) (etsession.Session, error)
	// Get 读取会话，不存在或已过期返回 NotFound
	Get(ctx context.Context, id string) (etsession.Session, error)
	// Delete 惰性删除：标记关闭并宣告过期时间，实际删除由 Sweep 完成
	Delete(ctx context.Context, id string) (etsession.Ack, error)
	// Sweep 清理已过期会话，返回清理数量
	Sweep(ctx context.Context) (int, error)
}

// Config 会话参数
type Config struct {
	IdleTTL     time.Duration
	DeleteGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTTL <= 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	if c.DeleteGrace <= 0 {
		c.DeleteGrace = DefaultDeleteGrace
	}
	return c
}

// Clock 时间源（测试可替换）
type Clock func() time.Time

func notFound(id string) error {
	return errorx.NotFound(errorx.CodeSessionNotFound, "session %s not found", id).
		WithCause(errorx.ErrSessionNotFound)
}

func validateID(id string) error {
	if id == "" {
		return errorx.Validation(errorx.CodeInvalidRequest, "session id is required").
			WithDetail("sessionId", "is required")
	}
	return nil
}

// closingExpiry 关闭时的过期时间：不晚于原过期时间
func closingExpiry(current, now time.Time, grace time.Duration) time.Time {
	at := now.Add(grace)
	if current.Before(at) {
		return current
	}
	return at
}
