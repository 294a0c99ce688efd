package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/audit"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

const (
	msgEmailTaken         = "User with this email already exists"
	msgBadCredentials     = "Invalid email or password"
	msgAccountDeactivated = "Account is deactivated"
	msgWrongPassword      = "Current password is incorrect"
	msgAdminSelfAssign    = "Administrative roles cannot be self-assigned"
	msgUserNotFound       = "User not found"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService handles account sign-up, sign-in and the caller's own profile.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, caller *auth.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, caller *auth.Identity, firstName, lastName *string) (*models.User, error)
	ChangePassword(ctx context.Context, caller *auth.Identity, current, next string) error
	// Logout revokes the caller's token when a denylist is configured.
	Logout(ctx context.Context, caller *auth.Identity) error
	RegisterPushToken(ctx context.Context, caller *auth.Identity, token string) error
}

type authService struct {
	users    repositories.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	denylist auth.Denylist
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

var _ AuthService = (*authService)(nil)

// NewAuthService creates the account service. denylist may be nil.
func NewAuthService(
	users repositories.UserRepository,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	denylist auth.Denylist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		denylist: denylist,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger.Named("auth-service"),
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	role := input.Role
	if role == "" {
		role = models.RoleStudent
	}
	if role.IsAdmin() {
		return nil, apperrors.BadRequest(msgAdminSelfAssign)
	}

	email := models.NormalizeEmail(input.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.BadRequest(msgEmailTaken)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Role:      role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.BadRequest(msgEmailTaken)
		}
		return nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.auditor.LogLoginFailure(email, "unknown_email")
			return nil, apperrors.New(apperrors.ErrInvalidCredentials, msgBadCredentials)
		}
		return nil, err
	}

	if !user.IsActive {
		s.auditor.LogLoginFailure(user.Email, "inactive_account")
		return nil, apperrors.New(apperrors.ErrInactiveAccount, msgAccountDeactivated)
	}

	if !s.hasher.Verify(password, user.Password) {
		s.auditor.LogLoginFailure(user.Email, "bad_password")
		return nil, apperrors.New(apperrors.ErrInvalidCredentials, msgBadCredentials)
	}

	if s.hasher.NeedsRehash(user.Password) {
		s.rehash(ctx, user, password)
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// rehash upgrades a hash made with a lower cost. Failure is logged and does
// not block the login.
func (s *authService) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn("Failed to upgrade password hash",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return
	}
	user.Password = hash
}

func (s *authService) issue(user *models.User) (string, error) {
	token, err := s.tokens.Issue(auth.Identity{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (s *authService) Profile(ctx context.Context, caller *auth.Identity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, caller *auth.Identity, firstName, lastName *string) (*models.User, error) {
	user, err := s.users.Update(ctx, caller.ID, models.UserUpdate{FirstName: firstName, LastName: lastName})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, caller *auth.Identity, current, next string) error {
	user, err := s.Profile(ctx, caller)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(current, user.Password) {
		return apperrors.BadRequest(msgWrongPassword)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.auditor.LogPasswordChanged(caller)
	return nil
}

func (s *authService) Logout(ctx context.Context, caller *auth.Identity) error {
	if s.denylist == nil || caller.TokenID == "" {
		return nil
	}
	if err := s.denylist.Revoke(ctx, caller.TokenID, caller.ExpiresAt); err != nil {
		return err
	}
	s.auditor.LogTokenRevoked(caller)
	return nil
}

func (s *authService) RegisterPushToken(ctx context.Context, caller *auth.Identity, token string) error {
	token = strings.TrimSpace(token)
	var value *string
	if token != "" {
		value = &token
	}
	return s.users.SetPushToken(ctx, caller.ID, value)
}
