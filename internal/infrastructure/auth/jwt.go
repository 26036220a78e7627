package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims are the dashboard session claims. Subject holds the username.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
}

// Username returns the authenticated dashboard user.
func (c *Claims) Username() string { return c.Subject }

type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// JWTService issues and validates HS256 tokens for the dashboard API.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewJWTService uses the access secret for refresh tokens when no refresh
// secret is configured.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.Secret
	}
	return &JWTService{
		accessSecret:  []byte(cfg.Secret),
		refreshSecret: []byte(refresh),
		accessTTL:     cfg.AccessTokenExpiration,
		refreshTTL:    cfg.RefreshTokenExpiration,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

func (s *JWTService) Issue(username string) (*TokenPair, error) {
	now := s.now()
	access, err := s.sign(username, TokenTypeAccess, now, s.accessTTL, s.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(username, TokenTypeRefresh, now, s.refreshTTL, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  now.Add(s.accessTTL),
		RefreshTokenExpiresAt: now.Add(s.refreshTTL),
		TokenType:             "Bearer",
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *JWTService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.validate(refreshToken, s.refreshSecret, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return s.Issue(claims.Subject)
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, s.accessSecret, TokenTypeAccess)
}

func (s *JWTService) sign(subject string, typ TokenType, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.issuer},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *JWTService) validate(raw string, secret []byte, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if claims.TokenType != want {
		return nil, ErrInvalidTokenType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
