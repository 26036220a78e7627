package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoblog/backend/internal/infrastructure/auth"
	"github.com/seoblog/backend/internal/infrastructure/config"
	"github.com/seoblog/backend/internal/interfaces/http/dto"
)

func authRoutes(credentials CredentialChecker, tokens TokenIssuer) func(*gin.Engine) {
	h := NewAuthHandler(credentials, tokens, nil)
	return func(r *gin.Engine) {
		r.POST("/auth/login", h.Login)
		r.POST("/auth/refresh", h.Refresh)
	}
}

func testAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	return auth.NewAuthenticator(config.AuthConfig{AdminUsername: "admin", AdminPasswordHash: hash})
}

func TestAuthHandler_Login(t *testing.T) {
	tokens := new(MockTokenIssuer)
	tokens.On("Issue", "admin").Return(&auth.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil)
	routes := authRoutes(testAuthenticator(t), tokens)

	w := serve(t, routes, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"correct horse"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "a", data["access_token"])
	assert.Equal(t, "admin", data["username"])

	w = serve(t, routes, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(t, routes, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tokens.AssertNumberOfCalls(t, "Issue", 1)
}

func TestAuthHandler_LoginWithoutAdmin(t *testing.T) {
	routes := authRoutes(auth.NewAuthenticator(config.AuthConfig{}), new(MockTokenIssuer))

	w := serve(t, routes, http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"x"}`))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeNotConfigured, decode(t, w).Error.Code)
}

func TestAuthHandler_Refresh(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "0123456789abcdef0123456789abcdef",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "seoblog",
	})
	pair, err := svc.Issue("admin")
	require.NoError(t, err)
	routes := authRoutes(testAuthenticator(t), svc)

	w := serve(t, routes, http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"`+pair.RefreshToken+`"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w).Data.(map[string]any)["access_token"])

	w = serve(t, routes, http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"`+pair.AccessToken+`"}`))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, decode(t, w).Error.Code)
}
