package mdsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fulfilment/internal/app/domains/entity/etsession"
	"fulfilment/internal/app/pkg/errorx"
)

// hash 字段
const (
	fieldStage       = "stage"
	fieldOrderNumber = "order_number"
	fieldCreatedAt   = "created_at"
	fieldUpdatedAt   = "updated_at"
	fieldExpiresAt   = "expires_at"
	fieldClosing     = "closing"
	fieldPreference  = "preference"
	fieldTurns       = "turns"
	contextPrefix    = "ctx:"
)

// maxTxRetries WATCH 冲突时的最大重试次数
const maxTxRetries = 16

// RedisStore 跨进程共享的会话存储
// 每个会话一个 hash，上下文字段逐个 HSET，实现字段级后写覆盖
// 读-改-写均在 WATCH 事务内完成，并发修改时重试
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	cfg    Config
	now    Clock

	afterLoad func(id string) // 测试用：读取后、提交前的回调
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(rdb redis.UniversalClient, prefix string, cfg Config, now Clock) *RedisStore {
	if now == nil {
		now = time.Now
	}
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, cfg: cfg.withDefaults(), now: now}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// update 在 WATCH 保护下读取会话并调用 fn 写回，key 被并发修改时重新读取
func (s *RedisStore) update(ctx context.Context, id string, fn func(tx *redis.Tx, sess etsession.Session, ok bool) error) error {
	key := s.key(id)
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			sess, ok, err := s.loadFrom(ctx, tx, id)
			if err != nil {
				return err
			}
			if s.afterLoad != nil {
				s.afterLoad(id)
			}
			return fn(tx, sess, ok)
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err == nil {
			return nil
		}
		if _, ok := errorx.As(err); ok {
			return err
		}
		return fmt.Errorf("update session %s failed: %w", id, err)
	}
	return errorx.Conflict(errorx.CodeStaleVersion, "session %s is being updated concurrently", id)
}

// Touch 创建或更新会话
func (s *RedisStore) Touch(ctx context.Context, id string, fields map[string]interface{}) (etsession.Session, error) {
	if err := validateID(id); err != nil {
		return etsession.Session{}, err
	}
	encoded := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return etsession.Session{}, fmt.Errorf("encode session field %s failed: %w", k, err)
		}
		encoded[contextPrefix+k] = string(raw)
	}

	var out etsession.Session
	err := s.update(ctx, id, func(tx *redis.Tx, sess etsession.Session, ok bool) error {
		now := s.now()
		fresh := !ok || sess.Expired(now)
		if fresh {
			sess = etsession.New(id, now, s.cfg.IdleTTL)
		}
		// 关闭中的会话保持原过期时间
		sess.Merge(fields, now, s.cfg.IdleTTL)

		turns, err := json.Marshal(sess.Turns)
		if err != nil {
			return fmt.Errorf("encode session turns failed: %w", err)
		}
		values := map[string]interface{}{
			fieldStage:       string(sess.Stage),
			fieldOrderNumber: sess.OrderNumber,
			fieldUpdatedAt:   formatTime(sess.UpdatedAt),
			fieldExpiresAt:   formatTime(sess.ExpiresAt),
			fieldTurns:       string(turns),
		}
		if fresh {
			values[fieldCreatedAt] = formatTime(sess.CreatedAt)
			values[fieldClosing] = "0"
		}
		for k, v := range encoded {
			values[k] = v
		}

		key := s.key(id)
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if fresh {
				pipe.Del(ctx, key)
			}
			pipe.HSet(ctx, key, values)
			pipe.PExpireAt(ctx, key, sess.ExpiresAt)
			return nil
		}); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return etsession.Session{}, err
	}
	return out, nil
}

// SetPreference 记录客户表态
func (s *RedisStore) SetPreference(ctx context.Context, id string, pref etsession.Preference) (etsession.Session, error) {
	var out etsession.Session
	err := s.update(ctx, id, func(tx *redis.Tx, sess etsession.Session, ok bool) error {
		now := s.now()
		if !ok || sess.Expired(now) {
			return notFound(id)
		}
		if pref.At.IsZero() {
			pref.At = now
		}
		raw, err := json.Marshal(pref)
		if err != nil {
			return fmt.Errorf("encode preference failed: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key(id), fieldPreference, string(raw), fieldUpdatedAt, formatTime(now))
			return nil
		}); err != nil {
			return err
		}
		sess.Preference = &pref
		sess.UpdatedAt = now
		out = sess
		return nil
	})
	if err != nil {
		return etsession.Session{}, err
	}
	return out, nil
}

// Get 读取会话快照
func (s *RedisStore) Get(ctx context.Context, id string) (etsession.Session, error) {
	sess, ok, err := s.load(ctx, id)
	if err != nil {
		return etsession.Session{}, err
	}
	if !ok || sess.Expired(s.now()) {
		return etsession.Session{}, notFound(id)
	}
	return sess, nil
}

// Delete 标记关闭并把 key 的过期时间提前到宽限期末
func (s *RedisStore) Delete(ctx context.Context, id string) (etsession.Ack, error) {
	var ack etsession.Ack
	err := s.update(ctx, id, func(tx *redis.Tx, sess etsession.Session, ok bool) error {
		now := s.now()
		if !ok || sess.Expired(now) {
			return notFound(id)
		}
		expiresAt := closingExpiry(sess.ExpiresAt, now, s.cfg.DeleteGrace)
		key := s.key(id)
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldClosing, "1",
				fieldExpiresAt, formatTime(expiresAt),
				fieldUpdatedAt, formatTime(now))
			pipe.PExpireAt(ctx, key, expiresAt)
			return nil
		}); err != nil {
			return err
		}
		ack = etsession.NewAck(id, expiresAt, expiresAt.Sub(now))
		return nil
	})
	if err != nil {
		return etsession.Ack{}, err
	}
	return ack, nil
}

// Sweep 清理 expires_at 已过的会话（Redis TTL 之外的兜底）
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0

	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		deleted := false
		err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.HGet(ctx, key, fieldExpiresAt).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return nil
				}
				return fmt.Errorf("read session expiry failed: %w", err)
			}
			if expiresAt, err := parseTime(raw); err == nil && now.Before(expiresAt) {
				return nil
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			}); err != nil {
				return err
			}
			deleted = true
			return nil
		}, key)
		// 期间被更新的会话留到下一轮
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("delete session failed: %w", err)
		}
		if deleted {
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan sessions failed: %w", err)
	}
	return removed, nil
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (s *RedisStore) load(ctx context.Context, id string) (etsession.Session, bool, error) {
	return s.loadFrom(ctx, s.rdb, id)
}

func (s *RedisStore) loadFrom(ctx context.Context, r hashReader, id string) (etsession.Session, bool, error) {
	vals, err := r.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return etsession.Session{}, false, fmt.Errorf("load session failed: %w", err)
	}
	if len(vals) == 0 {
		return etsession.Session{}, false, nil
	}
	sess, err := decodeSession(id, vals)
	if err != nil {
		return etsession.Session{}, false, err
	}
	return sess, true, nil
}

func decodeSession(id string, vals map[string]string) (etsession.Session, error) {
	sess := etsession.Session{
		ID:          id,
		Stage:       etsession.Stage(vals[fieldStage]),
		OrderNumber: vals[fieldOrderNumber],
		Closing:     vals[fieldClosing] == "1",
		Context:     map[string]interface{}{},
	}

	var err error
	if sess.CreatedAt, err = parseTime(vals[fieldCreatedAt]); err != nil {
		return sess, fmt.Errorf("decode session %s created_at failed: %w", id, err)
	}
	if sess.UpdatedAt, err = parseTime(vals[fieldUpdatedAt]); err != nil {
		return sess, fmt.Errorf("decode session %s updated_at failed: %w", id, err)
	}
	if sess.ExpiresAt, err = parseTime(vals[fieldExpiresAt]); err != nil {
		return sess, fmt.Errorf("decode session %s expires_at failed: %w", id, err)
	}

	if raw := vals[fieldPreference]; raw != "" {
		var pref etsession.Preference
		if err := json.Unmarshal([]byte(raw), &pref); err != nil {
			return sess, fmt.Errorf("decode session %s preference failed: %w", id, err)
		}
		sess.Preference = &pref
	}
	if raw := vals[fieldTurns]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &sess.Turns); err != nil {
			return sess, fmt.Errorf("decode session %s turns failed: %w", id, err)
		}
	}
	for k, raw := range vals {
		if !strings.HasPrefix(k, contextPrefix) {
			continue
		}
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return sess, fmt.Errorf("decode session %s field %s failed: %w", id, k, err)
		}
		sess.Context[strings.TrimPrefix(k, contextPrefix)] = v
	}
	return sess, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
