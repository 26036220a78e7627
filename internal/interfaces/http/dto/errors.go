package dto

import (
	"net/http"
	"strings"
)

// API error codes. Format: ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState = "ERR_INVALID_STATE"

	// ErrCodeNotConfigured means an optional integration is switched off
	ErrCodeNotConfigured = "ERR_NOT_CONFIGURED"
	// ErrCodeUpstream means an LLM, SEO or WordPress call failed
	ErrCodeUpstream = "ERR_UPSTREAM"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeNotConfigured: http.StatusServiceUnavailable,
	ErrCodeUpstream:      http.StatusBadGateway,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// domain codes kept verbatim in responses
	"RUN_IN_PROGRESS":           http.StatusConflict,
	"RUN_NOT_FINISHED":          http.StatusConflict,
	"ALREADY_PUBLISHED":         http.StatusConflict,
	"PUBLISHING_NOT_CONFIGURED": http.StatusServiceUnavailable,
	"ARCHIVE_NOT_CONFIGURED":    http.StatusServiceUnavailable,
	"EMPTY_CONTENT":             http.StatusBadRequest,
	"EMPTY_ARTICLE":             http.StatusUnprocessableEntity,
	"UNKNOWN_STAGE":             http.StatusBadRequest,
	"TOO_MANY_TAGS":             http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status for an error code. Domain codes with
// an INVALID_ prefix are client errors; anything unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// sharedCodeMapping maps the shared sentinel error codes to API codes
var sharedCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UPSTREAM_UNAVAILABLE": ErrCodeUpstream,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a shared domain code to its API code.
// Other codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := sharedCodeMapping[code]; ok {
		return newCode
	}
	return code
}
