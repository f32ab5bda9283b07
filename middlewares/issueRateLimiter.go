package middlewares

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IssueRateLimiter caps how many issues one user may create per day. The
// counter lives in Redis under <prefix>:<userId> and expires a day after the
// first issue of the window. Only requests that end in a 2xx consume quota,
// so rejected payloads cost nothing. Anonymous callers pass through untouched.
//
// The check and the increment are separate round trips, so concurrent
// requests from one user may overshoot the cap by the number in flight.
func IssueRateLimiter(client *redis.Client, prefix string, limit int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		userKey := prefix + ":" + p.UserID.Hex()

		count, err := client.Get(ctx, userKey).Int64()
		if errors.Is(err, redis.Nil) {
			count, err = 0, nil
		}
		if err != nil {
			log.Error("issue limiter read failed", zap.String("key", userKey), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			return
		}

		if count >= int64(limit) {
			if ttl, err := client.TTL(ctx, userKey).Result(); err == nil && ttl > 0 {
				c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Daily issue limit reached"})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}
		n, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			log.Error("issue limiter incr failed", zap.String("key", userKey), zap.Error(err))
			return
		}
		// TTL only on the first increment so the window is fixed.
		if n == 1 {
			if err := client.Expire(ctx, userKey, 24*time.Hour).Err(); err != nil {
				log.Error("issue limiter expire failed", zap.String("key", userKey), zap.Error(err))
			}
		}
	}
}
