// Package sessions provides scs session stores backed by shared storage, so
// several storefront instances can serve the same sessions.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "scs:session:"

// RedisStore keeps session data in Redis with the session expiry as the key
// TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ scs.Store    = (*RedisStore)(nil)
	_ scs.CtxStore = (*RedisStore)(nil)
)

func NewRedisStore(client *redis.Client) *RedisStore {
	return NewRedisStoreWithPrefix(client, defaultPrefix)
}

func NewRedisStoreWithPrefix(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// CommitCtx stores b until expiry. An expiry already in the past removes the
// session.
func (s *RedisStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	return s.client.Set(ctx, s.prefix+token, b, ttl).Err()
}

func (s *RedisStore) DeleteCtx(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}

func (s *RedisStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *RedisStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *RedisStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

// Ping checks connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
