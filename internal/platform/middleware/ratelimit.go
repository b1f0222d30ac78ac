package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// Limiter is the backend used by the RateLimit middleware. The default is
// the in-process token bucket store; multi-instance deployments inject
// the Redis-backed limiter so all instances share counters.
type Limiter interface {
	// Allow reports whether the request identified by key may proceed.
	// retryAfter is the suggested wait in seconds when denied.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter int, err error)
}

// RateLimit returns middleware that limits requests per client IP using the
// given Limiter. Backend errors fail open: a degraded limiter must not take
// the API down with it.
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				return next(c)
			}
			if !allowed {
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}

// ---- In-memory token bucket backend ----

type tokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:     float64(burst),
		maxTokens:  float64(burst),
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

func (b *tokenBucket) retryAfter() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refillRate <= 0 {
		return 1
	}
	return int((1-b.tokens)/b.refillRate) + 1
}

// MemoryLimiter holds per-key token buckets in process memory. Buckets idle
// longer than the sweep interval are dropped by a background sweeper.
type MemoryLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.RWMutex
	config  RateLimitConfig
}

func NewMemoryLimiter(cfg RateLimitConfig) *MemoryLimiter {
	l := &MemoryLimiter{
		buckets: make(map[string]*tokenBucket),
		config:  cfg,
	}
	go l.sweep()
	return l
}

func (l *MemoryLimiter) getBucket(key string) *tokenBucket {
	l.mu.RLock()
	bucket, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return bucket
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if bucket, ok := l.buckets[key]; ok {
		return bucket
	}
	bucket = newTokenBucket(l.config.RequestsPerSecond, l.config.BurstSize)
	l.buckets[key] = bucket
	return bucket
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	bucket := l.getBucket(key)
	if bucket.allow() {
		return true, 0, nil
	}
	return false, bucket.retryAfter(), nil
}

func (l *MemoryLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-5 * time.Minute)
		l.mu.Lock()
		for key, bucket := range l.buckets {
			bucket.mu.Lock()
			idle := bucket.lastRefill.Before(cutoff)
			bucket.mu.Unlock()
			if idle {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
