package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func fixedClock(rl *RateLimiter, at *time.Time) {
	rl.now = func() time.Time { return *at }
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("burst then block", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)
		fixedClock(rl, &now)
		for i := 0; i < 3; i++ {
			assert.True(t, rl.Allow("a"), "request %d", i+1)
		}
		assert.False(t, rl.Allow("a"))
		assert.Zero(t, rl.Remaining("a"))
		assert.True(t, rl.Allow("b"))
		assert.Equal(t, 3, rl.Remaining("c"))
	})

	t.Run("refills over the window", func(t *testing.T) {
		at := now
		rl := NewRateLimiter(2, time.Minute)
		fixedClock(rl, &at)
		assert.True(t, rl.Allow("a"))
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))

		at = at.Add(30 * time.Second)
		assert.True(t, rl.Allow("a"))
		assert.False(t, rl.Allow("a"))
	})

	t.Run("sweep drops idle clients", func(t *testing.T) {
		at := now
		rl := NewRateLimiter(2, time.Minute)
		fixedClock(rl, &at)
		rl.Allow("old")
		at = at.Add(90 * time.Second)
		rl.Allow("fresh")
		at = at.Add(60 * time.Second)

		assert.Equal(t, 1, rl.Sweep())
		assert.Equal(t, 2, rl.Remaining("old"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := gin.New()
	r.Use(RequestID(), RateLimit(rl))
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
