package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps fixed-window counters in Redis so every replica shares
// one budget. A window starts when its counter is created, with the expiry
// set in the same transaction.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "gophauth:rl:"}
}

func (l *RedisLimiter) key(rule Rule, key string) string {
	return l.prefix + rule.Name + ":" + key
}

// hit counts one request and returns the count of the current window.
// SET NX EX and INCR run in one MULTI, so a counter never exists without
// its expiry.
func (l *RedisLimiter) hit(ctx context.Context, rule Rule, key string) (int64, error) {
	k := l.key(rule, key)

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, rule.Window)
		incr = pipe.Incr(ctx, k)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val(), nil
}

func (l *RedisLimiter) Allow(ctx context.Context, rule Rule, key string) error {
	count, err := l.hit(ctx, rule, key)
	if err != nil {
		return err
	}
	if count > int64(rule.Limit) {
		return common.ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) Peek(ctx context.Context, rule Rule, key string) error {
	count, err := l.rdb.Get(ctx, l.key(rule, key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("rate limit counter: %w", err)
	}
	if count >= int64(rule.Limit) {
		return common.ErrRateLimited
	}
	return nil
}

func (l *RedisLimiter) Record(ctx context.Context, rule Rule, key string) error {
	_, err := l.hit(ctx, rule, key)
	return err
}
