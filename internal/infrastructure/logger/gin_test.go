package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "req-42"); c.Next() })
	r.Use(Recovery(log), GinMiddleware(log))
	return r
}

func requestLog(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusBadGateway, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, recorded := observer.New(zapcore.DebugLevel)
		r := newRouter(zap.New(core))
		r.GET("/api/runs", func(c *gin.Context) { c.Status(tt.status) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs?page=2", nil))

		entry := requestLog(t, recorded)
		assert.Equal(t, tt.level, entry.Level)
		fields := entry.ContextMap()
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, "page=2", fields["query"])
		assert.EqualValues(t, tt.status, fields["status"])
	}
}

func TestGinMiddleware_HealthIsDebug(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	r := newRouter(zap.New(core))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, zapcore.DebugLevel, requestLog(t, recorded).Level)
}

func TestGinMiddleware_PropagatesToRequestContext(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core))

	var requestID string
	var fromCtx, fromGin *zap.Logger
	r.GET("/x", func(c *gin.Context) {
		requestID = GetRequestID(c.Request.Context())
		fromCtx = FromContext(c.Request.Context())
		fromGin = GetGinLogger(c)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, "req-42", requestID)
	assert.Same(t, fromGin, fromCtx)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	r := newRouter(zap.New(core))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, recorded.FilterMessage("Panic recovered").Len())
}

func TestGetGinLogger_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
