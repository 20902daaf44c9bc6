package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter keyed by caller identity. Credential
// endpoints key by IP, everything behind auth keys by user id so that one
// noisy user cannot starve others sharing a NAT.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
}

type bucket struct {
	hits  int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
	}
}

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		now := time.Now()

		rl.mu.Lock()

		b, ok := rl.buckets[key]

		if !ok || now.After(b.reset) {
			rl.buckets[key] = &bucket{hits: 1, reset: now.Add(rl.window)}
			rl.pruneLocked(now)
			rl.mu.Unlock()
			c.Next()
			return
		}

		if b.hits >= rl.limit {
			retryAfter := int(time.Until(b.reset).Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			rl.mu.Unlock()

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		b.hits++
		rl.mu.Unlock()
		c.Next()
	}
}

// pruneLocked drops buckets whose window has long passed so the map does not
// grow with every IP ever seen. Caller holds rl.mu.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if len(rl.buckets) < 10_000 {
		return
	}

	for key, b := range rl.buckets {
		if now.After(b.reset) {
			delete(rl.buckets, key)
		}
	}
}

func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// gin's ClientIP already honors X-Forwarded-For / X-Real-IP
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
