package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chimehq/roi-intake/pkg/logging"
)

// RedisLimiter is a fixed-window limiter shared across API instances. Each
// key gets a counter that expires after the window; the first increment sets
// the expiry.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	logger      *logging.Logger
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration, logger *logging.Logger) *RedisLimiter {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		logger:      logger,
	}
}

// Allow increments the key's window counter. Redis failures allow the
// request: losing rate limiting briefly beats rejecting legitimate traffic.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := "ratelimit:" + key
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("rate limiter redis incr failed, allowing request", "error", err)
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("rate limiter redis expire failed", "error", err)
		}
	}
	return count <= int64(l.maxRequests)
}

var _ Limiter = (*RedisLimiter)(nil)
