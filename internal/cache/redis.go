package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "oi:search:"

// RedisStore keeps entries in Redis with SET EX expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects using a redis:// or rediss:// URL.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvRedisURL, err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis cache read failed", "error", err)
		}
		return nil, false
	}
	return data, true
}

func (s *RedisStore) Put(ctx context.Context, key string, body []byte) {
	if err := s.client.Set(ctx, redisPrefix+key, body, s.ttl).Err(); err != nil {
		slog.Warn("redis cache write failed", "error", err)
	}
}

// Clear deletes every key under the oi prefix.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := s.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to delete cache entry: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan cache entries: %w", err)
	}
	return removed, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
