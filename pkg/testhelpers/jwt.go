// Package testhelpers provides utilities for testing deadline-tracker components.
package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// TestJWTSecret signs tokens produced by these helpers.
const TestJWTSecret = "test-secret"

// TestTokenManager returns a token manager using TestJWTSecret and a one hour TTL.
func TestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(TestJWTSecret, time.Hour)
}

// GenerateTestJWT issues a signed token for the given user.
func GenerateTestJWT(t *testing.T, userID uuid.UUID, email string, role models.Role) string {
	t.Helper()

	token, err := TestTokenManager().Issue(auth.Identity{ID: userID, Email: email, Role: role})
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// GenerateTestJWTWithBearer returns the token with "Bearer " prefix for the Authorization header.
func GenerateTestJWTWithBearer(t *testing.T, userID uuid.UUID, email string, role models.Role) string {
	t.Helper()
	return "Bearer " + GenerateTestJWT(t, userID, email, role)
}
