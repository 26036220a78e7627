package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/auth"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUsernameKey = "jwt_username"
	BearerPrefix   = "Bearer "
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// JWTConfig holds configuration for the JWT middleware
type JWTConfig struct {
	Validator TokenValidator
	// SkipPaths are served without a token
	SkipPaths []string
	// QueryTokenPaths may pass the token as ?access_token=, for EventSource
	// clients that cannot set headers. Matched by suffix.
	QueryTokenPaths []string
	Logger          *zap.Logger
}

// DefaultJWTConfig leaves health, metrics and the auth endpoints open
func DefaultJWTConfig(v TokenValidator, logger *zap.Logger) JWTConfig {
	return JWTConfig{
		Validator: v,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		QueryTokenPaths: []string{"/progress"},
		Logger:          logger,
	}
}

// JWTAuth requires a valid bearer access token
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if slices.Contains(cfg.SkipPaths, path) {
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" && hasSuffix(path, cfg.QueryTokenPaths) {
			token = c.Query("access_token")
		}
		if token == "" {
			abortUnauthorized(c, cfg.Logger, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, cfg.Logger, err)
			return
		}
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUsernameKey, claims.Username())
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, BearerPrefix))
}

func hasSuffix(path string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return true
		}
	}
	return false
}

func abortUnauthorized(c *gin.Context, logger *zap.Logger, err error) {
	logger.Debug("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidTokenType):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token type"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims returns the claims stored by JWTAuth, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUsername returns the authenticated username, or ""
func GetJWTUsername(c *gin.Context) string {
	return c.GetString(JWTUsernameKey)
}
