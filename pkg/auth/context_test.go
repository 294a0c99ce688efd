package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

func TestGetUserIDFromContext(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		ctx      context.Context
		expected uuid.UUID
	}{
		{
			name:     "identity in context",
			ctx:      WithIdentity(context.Background(), &Identity{ID: userID, Role: models.RoleStudent}),
			expected: userID,
		},
		{
			name:     "no identity in context",
			ctx:      context.Background(),
			expected: uuid.Nil,
		},
		{
			name:     "nil identity in context",
			ctx:      WithIdentity(context.Background(), nil),
			expected: uuid.Nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserIDFromContext(tt.ctx); got != tt.expected {
				t.Errorf("GetUserIDFromContext() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRequireIdentity(t *testing.T) {
	_, err := RequireIdentity(context.Background())
	if !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	want := &Identity{ID: uuid.New(), Role: models.RoleAdmin}
	got, err := RequireIdentity(WithIdentity(context.Background(), want))
	if err != nil {
		t.Fatalf("RequireIdentity() error = %v", err)
	}
	if got != want {
		t.Errorf("RequireIdentity() returned a different identity")
	}
	if !got.IsAdmin() {
		t.Error("expected admin identity")
	}
}
