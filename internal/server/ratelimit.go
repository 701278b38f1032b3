package server

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"diagnosis-api/internal/common/logger"
)

// RateLimiter is a fixed-window counter backed by Redis. One INCR per
// request; the window key expires on first increment.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger logger.Logger
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, log logger.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		logger: log.WithFields(map[string]interface{}{"component": "rate-limiter"}),
	}
}

// Allow reports whether the caller identified by key is within the window
// budget. The error return signals limiter trouble, not denial; callers
// decide whether to fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.Warn("failed to set rate limit window expiry", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return count <= int64(l.limit), nil
}
