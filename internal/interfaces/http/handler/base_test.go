package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/domain/shared"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
	"github.com/seoblog/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// serve runs one request through a router with request IDs enabled
func serve(t *testing.T, register func(r *gin.Engine), method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(middleware.RequestID())
	register(r)
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load run: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"run in progress", shared.NewDomainError("RUN_IN_PROGRESS", "busy"), http.StatusConflict, "RUN_IN_PROGRESS"},
		{"invalid prefix", shared.NewDomainError("INVALID_BRIEF", "bad"), http.StatusBadRequest, "INVALID_BRIEF"},
		{"publishing off", shared.NewDomainError("PUBLISHING_NOT_CONFIGURED", "off"), http.StatusServiceUnavailable, "PUBLISHING_NOT_CONFIGURED"},
		{"upstream", shared.ErrUpstreamUnavailable, http.StatusBadGateway, dto.ErrCodeUpstream},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := serve(t, func(r *gin.Engine) {
				r.GET("/x", func(c *gin.Context) { h.HandleError(c, tt.err) })
			}, http.MethodGet, "/x", nil)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorHidesInternalText(t *testing.T) {
	h := &BaseHandler{}
	w := serve(t, func(r *gin.Engine) {
		r.GET("/x", func(c *gin.Context) { h.HandleError(c, fmt.Errorf("dial tcp 10.0.0.5:5432: refused")) })
	}, http.MethodGet, "/x", nil)

	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}
	register := func(r *gin.Engine) {
		r.GET("/runs/:id", func(c *gin.Context) {
			if id, ok := h.parseID(c); ok {
				c.String(http.StatusOK, id.String())
			}
		})
	}

	w := serve(t, register, http.MethodGet, "/runs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w).Error.Code)

	id := "0b9c4f3e-7f7e-4b5a-9a53-0c3a1f1f2d11"
	w = serve(t, register, http.MethodGet, "/runs/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, w.Body.String())
}
