package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements Limiter over a shared Redis instance using a
// fixed one-second window per key, so counters are shared across all
// server instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
}

func NewRedisLimiter(client *redis.Client, cfg RateLimitConfig) *RedisLimiter {
	limit := int(cfg.RequestsPerSecond)
	if cfg.BurstSize > limit {
		limit = cfg.BurstSize
	}
	return &RedisLimiter{client: client, limit: limit}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	window := time.Now().Unix()
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	if int(incr.Val()) > l.limit {
		return false, 1, nil
	}
	return true, 0, nil
}
