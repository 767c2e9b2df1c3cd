package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore keeps window counters in Redis so limits hold across
// server instances.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect opens a Redis client and checks that the server answers.
func Connect(ctx context.Context, addr, password string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// IncrementWindow implements WindowStore.
func (s *RedisStore) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window")
	}

	var incr *goredis.IntCmd
	var ttl *goredis.DurationCmd
	if _, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, 0, fmt.Errorf("incrementing rate window: %w", err)
	}

	// A new key has no expiry yet. So does a key whose EXPIRE was lost
	// earlier; setting it here keeps such a window from lasting forever.
	left := ttl.Val()
	if left < 0 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("setting rate window ttl: %w", err)
		}
		left = window
	}
	return incr.Val(), left, nil
}
