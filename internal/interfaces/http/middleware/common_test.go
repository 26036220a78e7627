package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"empty whitelist rejects", nil, "http://evil.test", ""},
		{"listed origin allowed", []string{"http://dash.test"}, "http://dash.test", "http://dash.test"},
		{"unlisted origin rejected", []string{"http://dash.test"}, "http://evil.test", ""},
		{"wildcard", []string{"*"}, "http://any.test", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(CORS(CORSConfigFrom(config.HTTPConfig{CORSAllowOrigins: tt.origins})))
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := newTestRouter(CORS(CORSConfigFrom(config.HTTPConfig{CORSAllowOrigins: []string{"http://dash.test"}})))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://dash.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(RequestID())

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 32)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Body.String())
	})
}

func TestSecure(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(Secure(DefaultSecurityConfig(false))).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("production", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(Secure(DefaultSecurityConfig(true))).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
	})
}
