package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter applies per-IP token buckets, with stricter budgets on
// the auth endpoints where code issuance and brute forcing live.
type RateLimiter struct {
	mu  sync.Mutex
	ips map[string]*rate.Limiter

	defaultLimit rate.Limit
	defaultBurst int

	endpointLimits map[string]struct {
		limit rate.Limit
		burst int
	}
}

func NewRateLimiter() *RateLimiter {
	l := &RateLimiter{
		ips:          make(map[string]*rate.Limiter),
		defaultLimit: rate.Every(100 * time.Millisecond), // 10 rps
		defaultBurst: 20,
		endpointLimits: make(map[string]struct {
			limit rate.Limit
			burst int
		}),
	}

	l.endpointLimits["/api/auth/send-code"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}
	l.endpointLimits["/api/auth/verify"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(time.Second),
		burst: 10,
	}

	return l
}

func (l *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.ips[key]
	if !ok {
		lim = rate.NewLimiter(limit, burst)
		l.ips[key] = lim
	}
	return lim
}

func (l *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		limit := l.defaultLimit
		burst := l.defaultBurst
		if el, ok := l.endpointLimits[path]; ok {
			limit = el.limit
			burst = el.burst
		}

		// separate bucket per ip+path so a burst on one endpoint does
		// not starve the rest
		key := c.ClientIP() + path
		if !l.getLimiter(key, limit, burst).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
