package throttle

import (
	"context"
	"sync"
	"time"
)

type window struct {
	failures int
	resetAt  time.Time
}

// MemoryLimiter is a mutex-guarded, in-process Limiter.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter returns a MemoryLimiter enforcing p.
func NewMemoryLimiter(p Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  p.normalized(),
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// current returns the live window for key, dropping an expired one.
// Callers hold mu.
func (m *MemoryLimiter) current(key string, now time.Time) *window {
	w, ok := m.windows[key]
	if ok && !now.Before(w.resetAt) {
		delete(m.windows, key)
		return nil
	}
	return w
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w := m.current(key, now)
	if w == nil || w.failures < m.policy.MaxFailures {
		return true, 0, nil
	}
	return false, w.resetAt.Sub(now), nil
}

func (m *MemoryLimiter) Fail(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w := m.current(key, now)
	if w == nil {
		w = &window{resetAt: now.Add(m.policy.Window)}
		m.windows[key] = w
	}
	w.failures++
	return nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}
