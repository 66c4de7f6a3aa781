package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var authRule = Rule{Name: RuleAuth, Limit: 5, Window: 15 * time.Minute}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow(ctx, authRule, "10.0.0.1"), "request %d", i+1)
	}
	assert.ErrorIs(t, l.Allow(ctx, authRule, "10.0.0.1"), common.ErrRateLimited)

	// other clients and rules have their own budget
	assert.NoError(t, l.Allow(ctx, authRule, "10.0.0.2"))
	assert.NoError(t, l.Allow(ctx, Rule{Name: RuleGeneral, Limit: 100, Window: time.Minute}, "10.0.0.1"))

	assert.Equal(t, 15*time.Minute, mr.TTL("gophauth:rl:auth:10.0.0.1"))

	mr.FastForward(15 * time.Minute)
	assert.NoError(t, l.Allow(ctx, authRule, "10.0.0.1"))
}

func TestRedisLimiter_CounterAlwaysExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb)
	ctx := context.Background()
	key := "gophauth:rl:auth:10.0.0.1"

	require.NoError(t, l.Record(ctx, authRule, "10.0.0.1"))
	assert.Equal(t, 15*time.Minute, mr.TTL(key))

	// later hits in the window keep the original expiry
	mr.FastForward(5 * time.Minute)
	require.NoError(t, l.Allow(ctx, authRule, "10.0.0.1"))
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestRedisLimiter_PeekAndRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb)
	ctx := context.Background()

	require.NoError(t, l.Peek(ctx, authRule, "ip"))
	assert.False(t, mr.Exists("gophauth:rl:auth:ip"), "peek does not count")

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Peek(ctx, authRule, "ip"), "before failure %d", i+1)
		require.NoError(t, l.Record(ctx, authRule, "ip"))
	}
	assert.ErrorIs(t, l.Peek(ctx, authRule, "ip"), common.ErrRateLimited)
	assert.NoError(t, l.Peek(ctx, authRule, "other-ip"))

	mr.FastForward(15 * time.Minute)
	assert.NoError(t, l.Peek(ctx, authRule, "ip"))
}

func TestRedisLimiter_BackendDown(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb)
	mr.Close()

	for name, call := range map[string]func(context.Context, Rule, string) error{
		"allow":  l.Allow,
		"peek":   l.Peek,
		"record": l.Record,
	} {
		err := call(context.Background(), authRule, "k")
		require.Error(t, err, name)
		assert.NotErrorIs(t, err, common.ErrRateLimited, name)
	}
}

func TestLocalLimiter_BurstThenRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Allow(ctx, authRule, "ip"), "request %d", i+1)
	}
	assert.ErrorIs(t, l.Allow(ctx, authRule, "ip"), common.ErrRateLimited)
	assert.NoError(t, l.Allow(ctx, authRule, "other-ip"))

	// one token comes back every window/limit = 3 minutes
	now = now.Add(4 * time.Minute)
	assert.NoError(t, l.Allow(ctx, authRule, "ip"))
	assert.ErrorIs(t, l.Allow(ctx, authRule, "ip"), common.ErrRateLimited)
}

func TestLocalLimiter_SweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, l.Allow(ctx, authRule, "a"))
	require.Len(t, l.buckets, 1)

	now = now.Add(authRule.Window + 2*time.Minute)
	require.NoError(t, l.Allow(ctx, authRule, "b"))
	assert.Len(t, l.buckets, 1)
	assert.Contains(t, l.buckets, "auth:b")
}

func TestLocalLimiter_PeekAndRecord(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLimiter()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Peek(ctx, authRule, "ip"))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(ctx, authRule, "ip"))
	}
	assert.ErrorIs(t, l.Peek(ctx, authRule, "ip"), common.ErrRateLimited)
	assert.NoError(t, l.Record(ctx, authRule, "ip"), "recording past the budget is not an error")

	now = now.Add(4 * time.Minute)
	assert.NoError(t, l.Peek(ctx, authRule, "ip"))
}
