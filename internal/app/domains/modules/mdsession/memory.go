package mdsession

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"fulfilment/internal/app/domains/entity/etsession"
)

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*etsession.Session
}

// MemoryStore 进程内会话存储，按 id 分片加锁
type MemoryStore struct {
	cfg    Config
	now    Clock
	shards [shardCount]*shard
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore(cfg Config, now Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	s := &MemoryStore{cfg: cfg.withDefaults(), now: now}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*etsession.Session)}
	}
	return s
}

func (s *MemoryStore) shardOf(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Touch 创建或更新会话
func (s *MemoryStore) Touch(ctx context.Context, id string, fields map[string]interface{}) (etsession.Session, error) {
	if err := validateID(id); err != nil {
		return etsession.Session{}, err
	}
	sh := s.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	sess, ok := sh.sessions[id]
	if !ok || sess.Expired(now) {
		fresh := etsession.New(id, now, s.cfg.IdleTTL)
		sess = &fresh
		sh.sessions[id] = sess
	}
	sess.Merge(fields, now, s.cfg.IdleTTL)
	return sess.Clone(), nil
}

// SetPreference 记录客户表态
func (s *MemoryStore) SetPreference(ctx context.Context, id string, pref etsession.Preference) (etsession.Session, error) {
	sh := s.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	sess, ok := sh.sessions[id]
	if !ok || sess.Expired(now) {
		return etsession.Session{}, notFound(id)
	}
	if pref.At.IsZero() {
		pref.At = now
	}
	sess.Preference = &pref
	sess.UpdatedAt = now
	return sess.Clone(), nil
}

// Get 读取会话快照
func (s *MemoryStore) Get(ctx context.Context, id string) (etsession.Session, error) {
	sh := s.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[id]
	if !ok || sess.Expired(s.now()) {
		return etsession.Session{}, notFound(id)
	}
	return sess.Clone(), nil
}

// Delete 标记关闭，宽限期后由 Sweep 清理
func (s *MemoryStore) Delete(ctx context.Context, id string) (etsession.Ack, error) {
	sh := s.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	sess, ok := sh.sessions[id]
	if !ok || sess.Expired(now) {
		return etsession.Ack{}, notFound(id)
	}
	sess.Closing = true
	sess.ExpiresAt = closingExpiry(sess.ExpiresAt, now, s.cfg.DeleteGrace)
	sess.UpdatedAt = now
	return etsession.NewAck(id, sess.ExpiresAt, sess.ExpiresAt.Sub(now)), nil
}

// Sweep 清理过期会话
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.Expired(now) {
				delete(sh.sessions, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed, nil
}

// Len 当前会话数量（含未清理的过期会话）
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}
