package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenClaims represents the caller identity carried by a bearer token.
type TokenClaims struct {
	TenantID  uuid.UUID
	Name      string
	Email     string
	Phone     string
	IsOwner   bool
	ExpiresAt time.Time
}

// TokenService defines the interface for bearer token validation.
type TokenService interface {
	// ValidateAccessToken validates an access token and returns its claims.
	ValidateAccessToken(ctx context.Context, token string) (*TokenClaims, error)
}
