package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
)

// RateLimiter is a fixed-window counter per client key.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	rate    int           // requests per window
	window  time.Duration // time window
	now     func() time.Time
}

type rateWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
}

// Allow counts one request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.sweep(now)
		l.windows[key] = &rateWindow{start: now, count: 1}
		return true
	}
	if w.count >= l.rate {
		return false
	}
	w.count++
	return true
}

// sweep drops expired windows. Must be called with lock held.
func (l *RateLimiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}

// clientKey identifies the caller: the authenticated user when known, else the IP.
func clientKey(c *gin.Context) string {
	if username := GetUsername(c); username != "" {
		return "user:" + GetTenant(c) + "/" + username
	}
	return "ip:" + c.ClientIP()
}

// RateLimit middleware limits requests per client under the given scope name.
func RateLimit(scope string, rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		key := clientKey(c)
		if !limiter.Allow(key) {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"scope", scope,
				"client", key,
				"path", c.Request.URL.Path,
			)

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}

		c.Next()
	}
}

// GlobalRateLimit applies cfg.Requests per window to every route.
func GlobalRateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	return RateLimit("global", cfg.Requests, time.Duration(cfg.WindowSeconds)*time.Second)
}

// AnalyzeRateLimit bounds the model-backed routes, which are slow and metered.
func AnalyzeRateLimit(cfg *config.RateLimitConfig) gin.HandlerFunc {
	return RateLimit("analyze", cfg.AnalyzeRequests, time.Duration(cfg.WindowSeconds)*time.Second)
}
