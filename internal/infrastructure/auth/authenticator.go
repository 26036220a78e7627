package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/seoblog/backend/internal/infrastructure/config"
)

// ErrInvalidCredentials covers both unknown user and wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator checks the single dashboard admin account from config.
type Authenticator struct {
	username string
	hash     []byte
}

func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{username: cfg.AdminUsername, hash: []byte(cfg.AdminPasswordHash)}
}

// Enabled is false when no password hash is configured; outside production
// the API then runs without authentication.
func (a *Authenticator) Enabled() bool { return len(a.hash) > 0 }

func (a *Authenticator) Authenticate(username, password string) error {
	if !a.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces the value for auth.admin_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
