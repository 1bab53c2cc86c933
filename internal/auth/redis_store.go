package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oakline/taskconsole/internal/components/redisc"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
)

const sessionKeyPrefix = "console:session:"

// RedisSessionStore keeps sessions as JSON values with a TTL matching the
// session expiry, so redis evicts them on its own.
type RedisSessionStore struct {
	*core.BaseComponent
	redisComp *redisc.Component
	client    redis.UniversalClient
}

func NewRedisSessionStore(rc *redisc.Component) *RedisSessionStore {
	return &RedisSessionStore{
		BaseComponent: core.NewBaseComponent(consts.COMP_SESSION_STORE, consts.COMPONENT_REDIS),
		redisComp:     rc,
	}
}

func (s *RedisSessionStore) Start(ctx context.Context) error {
	if err := s.BaseComponent.Start(ctx); err != nil {
		return err
	}
	s.client = s.redisComp.Client()
	if s.client == nil {
		return fmt.Errorf("redis client unavailable")
	}
	return nil
}

func (s *RedisSessionStore) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if time.Now().After(sess.ExpiresAt) {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *RedisSessionStore) Issue(ctx context.Context, userID, userName string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sess := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		ExpiresAt: time.Now().Add(ttl),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.Token, raw, ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}
