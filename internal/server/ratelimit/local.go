package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// LocalLimiter is a per-process token bucket per (rule, key): Limit tokens
// of burst, refilled evenly over Window. Idle buckets are dropped on sweep.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	sweepAt time.Time
}

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

const sweepEvery = time.Minute

func (l *LocalLimiter) Allow(ctx context.Context, rule Rule, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.bucket(rule, key, now).limiter.AllowN(now, 1) {
		return common.ErrRateLimited
	}
	return nil
}

func (l *LocalLimiter) Peek(ctx context.Context, rule Rule, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.bucket(rule, key, now).limiter.TokensAt(now) < 1 {
		return common.ErrRateLimited
	}
	return nil
}

// Record takes a token if one is left. An empty bucket already rejects.
func (l *LocalLimiter) Record(ctx context.Context, rule Rule, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.bucket(rule, key, now).limiter.AllowN(now, 1)
	return nil
}

// bucket returns the bucket of (rule, key), creating it full. l.mu must be
// held.
func (l *LocalLimiter) bucket(rule Rule, key string, now time.Time) *bucket {
	l.sweep(now)

	k := rule.Name + ":" + key
	b, ok := l.buckets[k]
	if !ok {
		every := rule.Window / time.Duration(max(rule.Limit, 1))
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), rule.Limit), window: rule.Window}
		l.buckets[k] = b
	}
	b.lastSeen = now
	return b
}

// sweep drops buckets idle for longer than their window. Such a bucket has
// refilled completely, so forgetting it changes nothing.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Before(l.sweepAt) {
		return
	}
	l.sweepAt = now.Add(sweepEvery)
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > b.window {
			delete(l.buckets, k)
		}
	}
}
