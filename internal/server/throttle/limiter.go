// Package throttle limits repeated failed logins per key. Two implementations
// are provided: RedisLimiter for multi-instance deployments and MemoryLimiter
// for a single process.
package throttle

import (
	"context"
	"time"
)

// Limiter tracks failures per key over a fixed window.
type Limiter interface {
	// Allow reports whether key may attempt again. When it may not,
	// retryAfter is the time left until the window resets.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
	// Fail records a failed attempt for key.
	Fail(ctx context.Context, key string) error
	// Reset forgets key, typically after a successful attempt.
	Reset(ctx context.Context, key string) error
}

// Policy is the failure budget shared by both implementations.
type Policy struct {
	MaxFailures int
	Window      time.Duration
}

func (p Policy) normalized() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = 5
	}
	if p.Window <= 0 {
		p.Window = 15 * time.Minute
	}
	return p
}
