package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/audit"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

const (
	msgInsufficientPermissions = "Insufficient permissions"
	msgStatusAdminOnly         = "Only administrators can change account status"
	msgSuperAdminOnly          = "Only a super admin can grant the super admin role"
	msgEmailInUse              = "Email is already in use"
)

// UserService defines the interface for user administration.
type UserService interface {
	List(ctx context.Context, filter models.UserFilter, page models.Page) (*models.PageResult[*models.User], error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Update is allowed for the user themself or an admin. Only admins may change isActive.
	Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.UserUpdate) (*models.User, error)
	// Deactivate clears isActive. Users are never hard-deleted.
	Deactivate(ctx context.Context, caller *auth.Identity, id uuid.UUID) error
	UpdateRole(ctx context.Context, caller *auth.Identity, id uuid.UUID, role models.Role) (*models.User, error)
	Stats(ctx context.Context, caller *auth.Identity, id uuid.UUID) (*models.UserStats, error)
}

type userService struct {
	userRepo repositories.UserRepository
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
	now      func() time.Time
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		auditor:  audit.NewSecurityAuditor(logger),
		logger:   logger.Named("user-service"),
		now:      time.Now,
	}
}

func selfOrAdmin(caller *auth.Identity, id uuid.UUID) error {
	if caller.ID != id && !caller.IsAdmin() {
		return apperrors.Forbidden(msgInsufficientPermissions)
	}
	return nil
}

func userNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound(msgUserNotFound)
	}
	return err
}

func (s *userService) List(ctx context.Context, filter models.UserFilter, page models.Page) (*models.PageResult[*models.User], error) {
	page = page.Normalize("createdAt", models.SortDesc)
	users, total, err := s.userRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &models.PageResult[*models.User]{Items: users, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, userNotFound(err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	if err := selfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if update.IsActive != nil && !caller.IsAdmin() {
		return nil, apperrors.Forbidden(msgStatusAdminOnly)
	}

	if update.Email != nil {
		email := models.NormalizeEmail(*update.Email)
		update.Email = &email
	}

	user, err := s.userRepo.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.BadRequest(msgEmailInUse)
		}
		return nil, userNotFound(err)
	}
	return user, nil
}

func (s *userService) Deactivate(ctx context.Context, caller *auth.Identity, id uuid.UUID) error {
	if err := selfOrAdmin(caller, id); err != nil {
		return err
	}
	if err := s.userRepo.SetActive(ctx, id, false); err != nil {
		return userNotFound(err)
	}

	s.auditor.LogAccountDeactivated(caller, id)
	return nil
}

func (s *userService) UpdateRole(ctx context.Context, caller *auth.Identity, id uuid.UUID, role models.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, apperrors.New(apperrors.ErrInvalidRole, "Invalid role")
	}
	if role == models.RoleSuperAdmin && caller.Role != models.RoleSuperAdmin {
		return nil, apperrors.Forbidden(msgSuperAdminOnly)
	}

	user, err := s.userRepo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, userNotFound(err)
	}

	s.auditor.LogRoleChanged(caller, id, role)
	return user, nil
}

func (s *userService) Stats(ctx context.Context, caller *auth.Identity, id uuid.UUID) (*models.UserStats, error) {
	if err := selfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return nil, userNotFound(err)
	}
	return s.userRepo.Stats(ctx, id, s.now())
}
