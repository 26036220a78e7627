package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seoblog/backend/internal/infrastructure/auth"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

// TokenIssuer issues and refreshes dashboard sessions
type TokenIssuer interface {
	Issue(username string) (*auth.TokenPair, error)
	Refresh(refreshToken string) (*auth.TokenPair, error)
}

// CredentialChecker verifies the admin login
type CredentialChecker interface {
	Enabled() bool
	Authenticate(username, password string) error
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest is the body of POST /auth/refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse is a token pair with the signed-in user
type LoginResponse struct {
	*auth.TokenPair
	Username string `json:"username"`
}

// AuthHandler handles dashboard sign-in
type AuthHandler struct {
	BaseHandler
	credentials CredentialChecker
	tokens      TokenIssuer
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(credentials CredentialChecker, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{credentials: credentials, tokens: tokens, logger: logger}
}

// Login exchanges the admin credentials for a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.credentials.Enabled() {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "Authentication is not configured")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.credentials.Authenticate(req.Username, req.Password); err != nil {
		h.logger.Warn("Failed login attempt",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
		)
		h.Unauthorized(c, "Invalid username or password")
		return
	}

	pair, err := h.tokens.Issue(req.Username)
	if err != nil {
		h.logger.Error("Failed to issue tokens", zap.Error(err))
		h.InternalError(c, "Failed to issue tokens")
		return
	}
	h.Success(c, LoginResponse{TokenPair: pair, Username: req.Username})
}

// Refresh trades a refresh token for a new pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	pair, err := h.tokens.Refresh(req.RefreshToken)
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeTokenExpired, "Refresh token has expired")
		return
	case err != nil:
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid refresh token")
		return
	}
	h.Success(c, pair)
}
