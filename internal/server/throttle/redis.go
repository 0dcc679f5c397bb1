package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "thoughtboard:login:"

// RedisLimiter keeps failure counters in Redis using INCR and EXPIRE NX in one
// MULTI block over a fixed window, so limits hold across server instances.
type RedisLimiter struct {
	client redis.Cmdable
	policy Policy
	prefix string
}

// NewRedisLimiter returns a RedisLimiter enforcing p on client.
func NewRedisLimiter(client redis.Cmdable, p Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: p.normalized(), prefix: defaultPrefix}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisLimiter) key(k string) string {
	return r.prefix + k
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	n, err := r.client.Get(ctx, r.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("redis get: %w", err)
	}
	if n < r.policy.MaxFailures {
		return true, 0, nil
	}

	ttl, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl: %w", err)
	}
	switch {
	case ttl == -1:
		// counter without expiry would block the key forever
		if err := r.client.Expire(ctx, r.key(key), r.policy.Window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
		ttl = r.policy.Window
	case ttl <= 0:
		ttl = r.policy.Window
	}
	return false, ttl, nil
}

func (r *RedisLimiter) Fail(ctx context.Context, key string) error {
	k := r.key(key)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, k)
		p.ExpireNX(ctx, k, r.policy.Window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
