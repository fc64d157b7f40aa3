package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"courses-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redisClient *redis.Client
}

// NewRateLimiter accepts a nil client, the limiter then lets everything through.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redisClient: client}
}

// limitKey counts authenticated callers per user so that a shared address
// (campus NAT, proxy) does not lock out every student behind it.
func limitKey(c *gin.Context, scope string) string {
	if actor, ok := CurrentActor(c); ok {
		return fmt.Sprintf("rate_limit:%s:user:%s", scope, actor.ID)
	}
	return fmt.Sprintf("rate_limit:%s:ip:%s", scope, c.ClientIP())
}

// retryAfterSeconds rounds up, a client retrying after 0 seconds would be refused again.
func retryAfterSeconds(ttl, window time.Duration) int {
	if ttl <= 0 {
		ttl = window
	}
	return int(math.Ceil(ttl.Seconds()))
}

// Limit allows limit requests per window and per caller. Mount it after JWTAuth
// to count per user.
func (rl *RateLimiter) Limit(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.redisClient == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := limitKey(c, scope)
		ctx := c.Request.Context()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			utils.LogError(err, "Rate limiter unavailable, request allowed")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, window).Err(); err != nil {
				utils.LogError(err, "Unable to set rate limit window on "+key)
			}
		}

		if count > int64(limit) {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()
			retryAfter := retryAfterSeconds(ttl, window)

			utils.LogErrorWithUser(c.GetString("user_id"), nil, "Rate limit exceeded on "+scope)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()
	}
}
