package throttle

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedisClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, Policy{MaxFailures: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, l.Fail(ctx, "alice"))
	}

	assert.Equal(t, time.Minute, mr.TTL(defaultPrefix+"alice"))

	ok, retry, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	mr.FastForward(time.Minute)
	ok, _, err = l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok, "window elapsed")
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, Policy{MaxFailures: 3, Window: time.Minute})

	require.NoError(t, l.Fail(ctx, "alice"))
	mr.FastForward(40 * time.Second)
	require.NoError(t, l.Fail(ctx, "alice"))

	assert.Equal(t, 20*time.Second, mr.TTL(defaultPrefix+"alice"), "later failures keep the window")
	v, err := mr.Get(defaultPrefix + "alice")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestRedisLimiter_CounterWithoutExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, Policy{MaxFailures: 1, Window: time.Minute})

	// left behind by a failed EXPIRE
	require.NoError(t, mr.Set(defaultPrefix+"alice", "1"))

	ok, retry, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)
	assert.Equal(t, time.Minute, mr.TTL(defaultPrefix+"alice"))

	mr.FastForward(24 * time.Hour)
	ok, _, err = l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredis(t)
	l := NewRedisLimiter(client, Policy{MaxFailures: 1, Window: time.Minute})

	require.NoError(t, l.Fail(ctx, "alice"))
	ok, _, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Reset(ctx, "alice"))
	assert.False(t, mr.Exists(defaultPrefix+"alice"))

	ok, _, err = l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedisLimiter(client, Policy{})
	mr.Close()

	_, _, err = l.Allow(ctx, "alice")
	assert.Error(t, err)
	assert.Error(t, l.Fail(ctx, "alice"))
	assert.Error(t, l.Reset(ctx, "alice"))
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "")
	assert.Error(t, err)
}
