// Package auth issues and verifies bearer tokens, hashes passwords, and
// authenticates API requests against the users table.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// IdentityKey is the context key for the authenticated caller.
	IdentityKey contextKey = "identity"
	// TokenKey is the context key for the raw bearer token.
	TokenKey contextKey = "token"
)

// Claims is the signed token payload. RegisteredClaims carries sub, iat, exp and jti.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Identity is the caller attached to an authenticated request.
type Identity struct {
	ID    uuid.UUID   `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`

	// TokenID and ExpiresAt identify the presented token for revocation.
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// IsAdmin reports whether the caller holds an administrative role.
func (i *Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity retrieves the caller from the request context.
// Returns nil and false if the request was not authenticated.
func GetIdentity(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*Identity)
	return identity, ok && identity != nil
}

// GetToken retrieves the raw bearer token from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

func contextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
