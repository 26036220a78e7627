package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// RateLimiter keeps one token bucket per client. Each bucket refills
// limit tokens per window and holds at most limit.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*visitor
	limit   int
	every   rate.Limit
	idleTTL time.Duration
	now     func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*visitor),
		limit:   limit,
		every:   rate.Every(window / time.Duration(limit)),
		idleTTL: 2 * window,
		now:     time.Now,
	}
}

func (rl *RateLimiter) visitor(key string) *visitor {
	now := rl.now()
	v, ok := rl.clients[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.clients[key] = v
	}
	v.lastSeen = now
	return v
}

// Allow takes a token for key if one is available
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.visitor(key).limiter.AllowN(rl.now(), 1)
}

// Remaining returns the whole tokens left for key
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.clients[key]
	if !ok {
		return rl.limit
	}
	return max(int(v.limiter.TokensAt(rl.now())), 0)
}

// Sweep forgets clients idle for two windows and returns how many it dropped.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idleTTL)
	n := 0
	for key, v := range rl.clients {
		if v.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until stop is closed
func (rl *RateLimiter) RunSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByKey limits requests per key returned by keyFunc
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		if !limiter.Allow(key) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
