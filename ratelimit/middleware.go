package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"routeweather.app/metrics"
)

// KeyFunc derives the limiter key from a request
type KeyFunc func(c *gin.Context) string

// ClientIPKey keys requests by caller IP: the first entry of
// X-Forwarded-For when present, otherwise the direct peer address.
func ClientIPKey(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.ClientIP()
}

// ClientIPAndIDKey combines IP with an explicit client identifier so
// clients behind one NAT do not share a counter
func ClientIPAndIDKey(c *gin.Context) string {
	clientID := c.GetHeader("X-Client-ID")
	if clientID == "" {
		return ClientIPKey(c)
	}
	return ClientIPKey(c) + ":" + clientID
}

// Middleware gates requests through the limiter and answers 429 with
// retry-after information when the window is exhausted
func (l *Limiter) Middleware(keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = ClientIPKey
	}

	return func(c *gin.Context) {
		result := l.IsRateLimited(keyFn(c))

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))

		if result.Limited {
			metrics.RecordLimiterRejection(l.name)

			retryAfter := int(time.Until(result.ResetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"limiter":    l.name,
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}
