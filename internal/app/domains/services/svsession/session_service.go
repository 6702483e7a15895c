package svsession

import (
	"context"

	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/pkg/logger"
)

// RemoteSessions 意图解析服务端的会话
type RemoteSessions interface {
	DeleteSession(ctx context.Context, sessionID string) (*intent.SessionAck, error)
}

// SessionService 对话会话服务
type SessionService struct {
	store  mdsession.Store
	remote RemoteSessions
	logger logger.Logger
}

// NewSessionService 创建会话服务，remote 可为 nil
func NewSessionService(store mdsession.Store, remote RemoteSessions, log logger.Logger) *SessionService {
	return &SessionService{store: store, remote: remote, logger: log}
}

// Get 读取会话快照
func (s *SessionService) Get(ctx context.Context, id string) (etsession.Session, error) {
	return s.store.Get(ctx, id)
}

// Delete 惰性删除会话，并尽力通知意图解析服务清理其会话
func (s *SessionService) Delete(ctx context.Context, id string) (etsession.Ack, error) {
	ack, err := s.store.Delete(ctx, id)
	if err != nil {
		return etsession.Ack{}, err
	}
	ctx = logger.WithSessionID(ctx, id)
	if s.remote != nil {
		if _, err := s.remote.DeleteSession(ctx, id); err != nil {
			s.logger.Warnf(ctx, "delete remote session failed: %v", err)
		}
	}
	s.logger.Infof(ctx, "session closing: expires_at=%s", ack.ExpiresAt)
	return ack, nil
}
