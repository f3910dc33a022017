// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"
)

// TokenClaims represents the claims contained in a JWT access token.
type TokenClaims struct {
	// UserID is the raw identifier carried by the token. Its syntax is not checked
	// here; the dashboard use case validates it against the store's key format.
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// TokenService defines the interface for JWT token operations.
type TokenService interface {
	// ValidateAccessToken validates an access token and returns its claims.
	ValidateAccessToken(ctx context.Context, token string) (*TokenClaims, error)

	// IssueAccessToken signs a short-lived access token for userID.
	// The production issuer is the auth service; this is used by tooling and tests.
	IssueAccessToken(ctx context.Context, userID, email string) (string, error)
}
