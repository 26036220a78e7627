package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeNotConfigured, http.StatusServiceUnavailable},
		{ErrCodeUpstream, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"RUN_IN_PROGRESS", http.StatusConflict},
		{"PUBLISHING_NOT_CONFIGURED", http.StatusServiceUnavailable},
		{"INVALID_BRIEF", http.StatusBadRequest},
		{"INVALID_CRON", http.StatusBadRequest},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE"))
	assert.Equal(t, ErrCodeUpstream, NormalizeErrorCode("UPSTREAM_UNAVAILABLE"))
	assert.Equal(t, "RUN_NOT_FINISHED", NormalizeErrorCode("RUN_NOT_FINISHED"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		pages    int
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, tt.pages, resp.Meta.TotalPages)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "product_name", Message: "This field is required"},
	})
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body, "data")
	errObj := body["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errObj["code"])
	assert.Equal(t, "req-1", errObj["request_id"])
	assert.Len(t, errObj["details"], 1)

	plain, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "missing"))
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "request_id")
}
