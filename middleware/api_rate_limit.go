package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/services"
)

// EndpointRateLimiter limits requests per caller to one route. Callers are
// keyed by user ID when authenticated, else by client IP. When the limiter
// itself fails the request is let through.
func EndpointRateLimiter(limiter services.RateLimiter, requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("endpoint:%s:%s:%s", c.Request.Method, c.FullPath(), rateLimitIdentifier(c))

		decision, err := limiter.CheckLimit(c.Request.Context(), key, requests, window)
		if err != nil {
			logger.GetLogger().Warnw("Rate limit check failed, allowing request", "key", key, "error", err)
			c.Next()
			return
		}

		setRateLimitHeaders(c, requests, decision.Remaining, decision.RetryAfter)
		if !decision.Allowed {
			retry := int(decision.RetryAfter.Seconds())
			_ = c.Error(apperrors.RateLimitExceeded(
				fmt.Sprintf("Too many requests. Please try again in %d seconds.", retry), retry))
			c.Abort()
			return
		}
		c.Next()
	}
}

func rateLimitIdentifier(c *gin.Context) string {
	if userID := c.GetString(string(UserIDKey)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func setRateLimitHeaders(c *gin.Context, limit, remaining int, retryAfter time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if retryAfter > 0 {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
}
