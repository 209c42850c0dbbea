package ratelimit

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware limits the route by client IP. Bucket errors let the request
// through.
func (l *Limiter) Middleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		res, err := l.Allow(ctx, c.ClientIP())
		if err != nil {
			l.log.Warn("rate limit check failed, allowing request",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			l.metrics.RecordRateLimitAllowed(ctx, endpoint)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			retry := int(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			l.metrics.RecordRateLimitDenied(ctx, endpoint, "lab_rate")
			_ = c.Error(ErrRateLimited)
			c.Abort()
			return
		}

		l.metrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}
