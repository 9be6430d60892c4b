package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/formhive/formhive/internal/config"
)

// rateLimiter admits or rejects one request for a client key within a
// window.
type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

func newLimiter(cfg config.RateLimitConfig) rateLimiter {
	if cfg.RedisAddr != "" {
		return &redisLimiter{
			client: redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			}),
		}
	}
	return &memoryLimiter{clients: make(map[string][]time.Time)}
}

// memoryLimiter is a sliding-window limiter for single-instance
// deployments.
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string][]time.Time
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	// Clean old entries
	var valid []time.Time
	for _, ts := range m.clients[key] {
		if now.Sub(ts) < window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= limit {
		m.clients[key] = valid
		return false
	}

	m.clients[key] = append(valid, now)
	return true
}

// redisLimiter counts requests per fixed window in redis so the limit holds
// across instances. Redis errors fail open.
type redisLimiter struct {
	client *redis.Client
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	redisKey := "ratelimit:" + key
	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, window)
	}
	return count <= int64(limit)
}

// rateLimitMiddleware applies a per-client limit to a route group. The scope
// keeps the overall API counter and the stricter submission counter
// separate.
func rateLimitMiddleware(limiter rateLimiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", scope, c.ClientIP())
		if !limiter.Allow(c.Request.Context(), key, limit, window) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
