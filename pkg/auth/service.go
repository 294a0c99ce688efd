package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// Caller-facing messages for each failed authentication step.
const (
	MsgTokenNotProvided = "Access token not provided"
	MsgInvalidToken     = "Invalid token"
	MsgTokenRevoked     = "Token has been revoked"
	MsgUserInactive     = "User not found or inactive"
)

// UserLookup loads the account behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService authenticates API requests.
type AuthService interface {
	// ValidateRequest walks extract -> verify -> revocation check -> user lookup.
	// Any failed step returns an unauthorized error and the request must stop.
	// On success it returns the caller and the raw token.
	ValidateRequest(r *http.Request) (*Identity, string, error)
}

type authService struct {
	tokens   *TokenManager
	users    UserLookup
	denylist Denylist
	logger   *zap.Logger
}

var _ AuthService = (*authService)(nil)

// NewAuthService creates an AuthService. denylist may be nil to disable revocation checks.
func NewAuthService(tokens *TokenManager, users UserLookup, denylist Denylist, logger *zap.Logger) AuthService {
	return &authService{
		tokens:   tokens,
		users:    users,
		denylist: denylist,
		logger:   logger,
	}
}

// ExtractBearer parses an "Authorization: Bearer <token>" header value.
func ExtractBearer(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func (s *authService) ValidateRequest(r *http.Request) (*Identity, string, error) {
	ctx := r.Context()

	tokenString, ok := ExtractBearer(r.Header.Get("Authorization"))
	if !ok {
		s.logger.Debug("No bearer token in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, "", apperrors.Unauthorized(MsgTokenNotProvided)
	}

	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.logger.Debug("Token verification failed", zap.String("path", r.URL.Path))
		return nil, "", apperrors.Unauthorized(MsgInvalidToken)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, "", apperrors.Unauthorized(MsgTokenRevoked)
		}
	}

	// Verify already checked the id claim parses.
	userID := uuid.MustParse(claims.UserID)
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", apperrors.Unauthorized(MsgUserInactive)
		}
		return nil, "", fmt.Errorf("failed to load user for token: %w", err)
	}
	if !user.IsActive {
		s.logger.Debug("Token presented for inactive user", zap.String("user_id", user.ID.String()))
		return nil, "", apperrors.Unauthorized(MsgUserInactive)
	}

	identity := &Identity{
		ID:      user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, tokenString, nil
}
