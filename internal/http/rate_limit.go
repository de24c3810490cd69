package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"otp-auth/internal/service"
)

// RateLimitMiddleware limita por IP de cliente dentro de un scope. Sin limiter deja pasar todo.
func RateLimitMiddleware(limiter service.OTPRateLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ok, retryAfter := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if !ok {
			if secs := int(retryAfter.Seconds()); secs > 0 {
				c.Header("Retry-After", strconv.Itoa(secs))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
