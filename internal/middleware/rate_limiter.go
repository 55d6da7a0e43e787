package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"complaint-service/internal/httpx"
	"complaint-service/internal/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, per time.Duration) (bool, error)
}

// RedisLimiter keeps a sliding window per key in a sorted set.
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
}

func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "complaints:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	now := time.Now().UnixNano()
	key = l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now-per.Nanoseconds(), 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return card.Val() <= int64(limit), nil
}

// RateLimit throttles by client IP and route. When the limiter backend fails the request is
// let through.
func RateLimit(limiter Limiter, limit int, per time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, err := limiter.Allow(c.Request.Context(), key, limit, per)
		if err != nil {
			logger.Warn("Rate limiting unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", per.String())

		if !allowed {
			logger.Warn("Rate limit exceeded", zap.String("key", key), zap.Int("limit", limit))
			httpx.Fail(c, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		c.Next()
	}
}
