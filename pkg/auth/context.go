package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
)

// GetUserIDFromContext returns the caller's user ID, or uuid.Nil if the request is anonymous.
func GetUserIDFromContext(ctx context.Context) uuid.UUID {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return uuid.Nil
	}
	return identity.ID
}

// RequireIdentity returns the caller or an unauthorized error.
// Handlers behind the authenticate stage can rely on it succeeding.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return identity, nil
}
