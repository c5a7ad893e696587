package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/talenthub/matching-api/internal/ratelimit"
)

// RateLimiter enforces per-agency request budgets via the token-bucket
// governor and surfaces the budget on every response.
type RateLimiter struct {
	governor *ratelimit.Governor
}

func NewRateLimiter(governor *ratelimit.Governor) *RateLimiter {
	return &RateLimiter{governor: governor}
}

// Limit is the Gin middleware handler
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if agency := GetAgency(c); agency != nil {
			key = agency.ID.String()
		}

		d, err := rl.governor.CheckAndConsume(c.Request.Context(), key)
		if err != nil {
			// Fail open: a broken limiter should not take the API down
			log.Error().Err(err).Str("key", key).Msg("Rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(d.RetryAfter.Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}
