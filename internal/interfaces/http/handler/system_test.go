package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/infrastructure/seo"
)

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

type staticSources []seo.SourceStatus

func (s staticSources) Sources() []seo.SourceStatus { return s }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		ping   error
		status int
		state  string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("seoblog", "1.0.0", pingFunc(func() error { return tt.ping }))
			r := gin.New()
			r.GET("/health", h.Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+tt.state+`"`)
			assert.Contains(t, w.Body.String(), `"name":"seoblog"`)
		})
	}
}

func TestSystemHandler_Integrations(t *testing.T) {
	h := NewSystemHandler("seoblog", "1.0.0", pingFunc(func() error { return nil }),
		WithLLM("gemini", CheckFunc(func(context.Context) error { return nil })),
		WithSEOSources(staticSources{{Name: "mock", Configured: true}}),
	)
	w := serve(t, func(r *gin.Engine) { r.GET("/integrations/status", h.Integrations) },
		http.MethodGet, "/integrations/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)

	llm := data["llm"].(map[string]any)
	assert.Equal(t, "gemini", llm["name"])
	assert.Equal(t, true, llm["healthy"])

	wp := data["wordpress"].(map[string]any)
	assert.Equal(t, false, wp["configured"])
	assert.Equal(t, "not configured", wp["detail"])

	assert.Len(t, data["seo_sources"], 1)
}

func TestSystemHandler_IntegrationFailureIsReported(t *testing.T) {
	h := NewSystemHandler("seoblog", "1.0.0", pingFunc(func() error { return nil }),
		WithWordPress("https://blog.example.com", CheckFunc(func(context.Context) error {
			return errors.New("wordpress: 401 invalid credentials")
		})),
	)
	w := serve(t, func(r *gin.Engine) { r.GET("/integrations/status", h.Integrations) },
		http.MethodGet, "/integrations/status", nil)

	wp := decode(t, w).Data.(map[string]any)["wordpress"].(map[string]any)
	assert.Equal(t, true, wp["configured"])
	assert.Equal(t, false, wp["healthy"])
	assert.Contains(t, wp["detail"], "401")
}
