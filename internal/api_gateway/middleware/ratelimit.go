package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lead-marketplace/internal/platform/ratelimit"
)

// RateLimit throttles the identified buyer within scope. It must run after
// BuyerIdentity. When the limiter store is unreachable the request is let
// through, since the purchase transaction enforces correctness on its own.
func RateLimit(logger *slog.Logger, limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		mobile := GetBuyerMobile(c)
		decision, err := limiter.Allow(c.Request.Context(), scope, mobile)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				"scope", scope,
				"buyer_mobile", mobile,
				"error", err,
			)
			c.Next()
			return
		}
		if decision.Allowed {
			c.Next()
			return
		}

		seconds := int(decision.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))

		body := gin.H{
			"error": gin.H{
				"code":      "RATE_LIMITED",
				"message":   "too many " + scope + " attempts, try again later",
				"retryable": true,
			},
		}
		if id := GetCorrelationID(c); id != "" {
			body["correlation_id"] = id
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
	}
}
