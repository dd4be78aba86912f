package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid admin password")

// RoleAdmin is the only role issued today.
const RoleAdmin = "admin"

// AdminAuthenticator verifies the shared admin credential and issues session
// tokens. The credential arrives as a bcrypt hash from configuration, never
// as a literal in code.
type AdminAuthenticator struct {
	passwordHash []byte
	tokens       *JWTManager
}

// NewAdminAuthenticator creates an authenticator for the given bcrypt hash.
func NewAdminAuthenticator(passwordHash string, tokens *JWTManager) *AdminAuthenticator {
	return &AdminAuthenticator{
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
	}
}

// Authenticate verifies the supplied password and returns a session token.
func (a *AdminAuthenticator) Authenticate(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := a.tokens.Generate(RoleAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to create admin session: %w", err)
	}

	return token, nil
}

// Validate checks a session token and returns its claims if it grants admin.
func (a *AdminAuthenticator) Validate(tokenString string) (*Claims, error) {
	claims, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
