// Package adapters implements adapter interfaces from the application layer.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsledger/backend/internal/application/adapter"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

const (
	tokenTypeAccess = "access"
	tokenIssuer     = "opsledger"
)

// CustomClaims represents the custom claims for JWT tokens.
type CustomClaims struct {
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsOwner   bool   `json:"is_owner,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenService validates bearer tokens signed with a shared secret.
// Tokens are issued by the identity provider; IssueAccessToken exists for
// local tooling and tests.
type TokenService struct {
	secret []byte
}

var _ adapter.TokenService = (*TokenService)(nil)

// NewTokenService creates a new token service instance.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
	}
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *TokenService) ValidateAccessToken(ctx context.Context, token string) (*adapter.TokenClaims, error) {
	claims, err := s.parseJWT(token)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("invalid token type: expected access token: %w", domainerror.ErrInvalidToken)
	}

	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil || tenantID == uuid.Nil {
		return nil, domainerror.ErrMissingTenant
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &adapter.TokenClaims{
		TenantID:  tenantID,
		Name:      claims.Name,
		Email:     claims.Email,
		Phone:     claims.Phone,
		IsOwner:   claims.IsOwner,
		ExpiresAt: expiresAt,
	}, nil
}

// IssueAccessToken signs an access token for the given identity.
func (s *TokenService) IssueAccessToken(identity adapter.TokenClaims, duration time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := CustomClaims{
		TenantID:  identity.TenantID.String(),
		Name:      identity.Name,
		Email:     identity.Email,
		Phone:     identity.Phone,
		IsOwner:   identity.IsOwner,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   identity.TenantID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parseJWT parses and validates a JWT token.
func (s *TokenService) parseJWT(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerror.ErrExpiredToken
		}
		return nil, fmt.Errorf("failed to parse token: %w", domainerror.ErrInvalidToken)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, domainerror.ErrInvalidToken
	}

	return claims, nil
}
