// Package middleware holds the gin middleware of the dashboard API.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

const (
	// RequestIDKey is the gin context key of the request ID; the logger
	// middleware reads the same key.
	RequestIDKey = "request_id"
	// RequestIDHeader carries the request ID in and out.
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORSConfigFrom builds the CORS settings from the HTTP config. An empty
// origin list rejects every cross-origin request.
func CORSConfigFrom(cfg config.HTTPConfig) CORSConfig {
	c := CORSConfig{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     cfg.CORSAllowMethods,
		AllowHeaders:     cfg.CORSAllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Content-Type", "Authorization", RequestIDHeader, "Accept", "Cache-Control", "Last-Event-ID"}
	}
	return c
}

// CORS answers preflights and sets CORS headers for allowed origins
func CORS(cfg CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.AllowOrigins, "*")

	allowed := func(origin string) string {
		switch {
		case len(cfg.AllowOrigins) == 0 || origin == "":
			return ""
		case wildcard:
			return "*"
		case slices.Contains(cfg.AllowOrigins, origin):
			return origin
		}
		return ""
	}

	return func(c *gin.Context) {
		if origin := allowed(c.GetHeader("Origin")); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials && origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			if len(cfg.ExposeHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
			h.Add("Vary", "Origin")
		}

		// preflights never reach the routes, allowed or not
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID keeps the caller's X-Request-ID or generates one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = newRequestID()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	HSTSEnabled bool
	HSTSMaxAge  int // seconds
	CSP         string
}

// DefaultSecurityConfig enables HSTS in production only; the API serves
// JSON and event streams, so the CSP denies everything.
func DefaultSecurityConfig(production bool) SecurityConfig {
	return SecurityConfig{
		HSTSEnabled: production,
		HSTSMaxAge:  31536000,
		CSP:         "default-src 'none'; frame-ancestors 'none'",
	}
}

// Secure adds security headers to every response
func Secure(cfg SecurityConfig) gin.HandlerFunc {
	hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if cfg.CSP != "" {
			h.Set("Content-Security-Policy", cfg.CSP)
		}
		if cfg.HSTSEnabled {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
