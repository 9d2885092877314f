package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cart-session:"

// NewRedisStore keeps values without expiry. Use WithTTL for stores shared
// by many devices where abandoned carts should age out.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type RedisStore struct {
	client  *redis.Client
	baseTTL time.Duration
}

// WithTTL sets a base expiry; each write adds up to five minutes of jitter.
func (r *RedisStore) WithTTL(ttl time.Duration) *RedisStore {
	r.baseTTL = ttl
	return r
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	var ttl time.Duration
	if r.baseTTL > 0 {
		jitter := time.Duration(rand.Intn(5)) * time.Minute
		ttl = r.baseTTL + jitter
	}

	if err := r.client.Set(ctx, redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}
