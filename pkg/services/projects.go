package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/database"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

const (
	msgAlreadyMember     = "User is already a member of this project"
	msgMemberNotFound    = "Member not found"
	msgCreatorMembership = "The project creator cannot be removed from the project"
	msgEndBeforeStart    = "End date must be after start date"
)

// ProjectInput holds the fields of a new project.
type ProjectInput struct {
	Name        string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ProjectService defines the interface for project and membership operations.
// Methods returning a Lookup report NotAccessible for both missing projects and
// projects the caller cannot see.
type ProjectService interface {
	Create(ctx context.Context, caller *auth.Identity, input ProjectInput) (*models.Project, error)
	List(ctx context.Context, caller *auth.Identity, filter models.ProjectFilter, page models.Page) (*models.PageResult[*models.Project], error)
	Get(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.ProjectDetail], error)
	Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.ProjectUpdate) (models.Lookup[*models.Project], error)
	Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Project], error)

	AddMember(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID, role string) (models.Lookup[*models.ProjectMember], error)
	RemoveMember(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID) (models.Lookup[*models.Project], error)
	UpdateMemberRole(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID, role string) (models.Lookup[*models.ProjectMember], error)

	Stats(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.ProjectStats], error)
}

type projectService struct {
	tx          database.Transactor
	projectRepo repositories.ProjectRepository
	taskRepo    repositories.TaskRepository
	userRepo    repositories.UserRepository
	access      Access
	logger      *zap.Logger
	now         func() time.Time
}

var _ ProjectService = (*projectService)(nil)

// NewProjectService creates a new project service with dependencies.
func NewProjectService(
	tx database.Transactor,
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	access Access,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		tx:          tx,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
		access:      access,
		logger:      logger.Named("project-service"),
		now:         time.Now,
	}
}

// Create stores the project and enrolls its creator as owner in one transaction.
func (s *projectService) Create(ctx context.Context, caller *auth.Identity, input ProjectInput) (*models.Project, error) {
	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		EndDate:     input.EndDate,
		Status:      models.ProjectStatusActive,
		CreatorID:   caller.ID,
	}
	project.StartDate = s.now()
	if input.StartDate != nil {
		project.StartDate = *input.StartDate
	}
	if project.EndDate != nil && project.EndDate.Before(project.StartDate) {
		return nil, apperrors.BadRequest(msgEndBeforeStart)
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.projectRepo.Create(ctx, project); err != nil {
			return err
		}
		return s.projectRepo.AddMember(ctx, &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    caller.ID,
			Role:      models.MemberRoleOwner,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project created",
		zap.String("project_id", project.ID.String()),
		zap.String("creator_id", caller.ID.String()))

	return s.projectRepo.GetByID(ctx, project.ID)
}

func (s *projectService) List(ctx context.Context, caller *auth.Identity, filter models.ProjectFilter, page models.Page) (*models.PageResult[*models.Project], error) {
	page = page.Normalize("createdAt", models.SortDesc)
	projects, total, err := s.projectRepo.List(ctx, caller.ID, filter, page)
	if err != nil {
		return nil, err
	}
	return &models.PageResult[*models.Project]{Items: projects, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *projectService) Get(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.ProjectDetail], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, id)
	project, ok := lookup.Get()
	if err != nil || !ok {
		return models.NotAccessible[*models.ProjectDetail](), err
	}

	members, err := s.projectRepo.ListMembers(ctx, id)
	if err != nil {
		return models.NotAccessible[*models.ProjectDetail](), err
	}
	tasks, err := s.taskRepo.ListByProject(ctx, id)
	if err != nil {
		return models.NotAccessible[*models.ProjectDetail](), err
	}

	return models.Found(&models.ProjectDetail{Project: *project, Members: members, Tasks: tasks}), nil
}

func (s *projectService) Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.ProjectUpdate) (models.Lookup[*models.Project], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, id)
	project, ok := lookup.Get()
	if err != nil || !ok {
		return lookup, err
	}

	start, end := project.StartDate, project.EndDate
	if update.StartDate != nil {
		start = *update.StartDate
	}
	if update.EndDate != nil {
		end = update.EndDate
	}
	if end != nil && end.Before(start) {
		return models.NotAccessible[*models.Project](), apperrors.BadRequest(msgEndBeforeStart)
	}

	updated, err := s.projectRepo.Update(ctx, id, update)
	if err != nil {
		return notAccessible[*models.Project](err)
	}
	return models.Found(updated), nil
}

// Delete removes the project with its tasks and memberships. Only the creator may delete.
func (s *projectService) Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Project], error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return notAccessible[*models.Project](err)
	}
	if !s.access.CanDeleteProject(caller, project) {
		return models.NotAccessible[*models.Project](), nil
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return notAccessible[*models.Project](err)
	}

	s.logger.Info("Project deleted",
		zap.String("project_id", id.String()),
		zap.String("by", caller.ID.String()))
	return models.Found(project), nil
}

func (s *projectService) AddMember(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID, role string) (models.Lookup[*models.ProjectMember], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, projectID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[*models.ProjectMember](), err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return models.NotAccessible[*models.ProjectMember](), userNotFound(err)
	}

	member := &models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	if err := s.projectRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return models.NotAccessible[*models.ProjectMember](), apperrors.BadRequest(msgAlreadyMember)
		}
		return notAccessible[*models.ProjectMember](err)
	}
	member.User = user.Summary()
	return models.Found(member), nil
}

func (s *projectService) RemoveMember(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID) (models.Lookup[*models.Project], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, projectID)
	project, ok := lookup.Get()
	if err != nil || !ok {
		return lookup, err
	}
	if project.CreatorID == userID {
		return models.NotAccessible[*models.Project](), apperrors.BadRequest(msgCreatorMembership)
	}

	if err := s.projectRepo.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.NotAccessible[*models.Project](), apperrors.NotFound(msgMemberNotFound)
		}
		return models.NotAccessible[*models.Project](), err
	}
	return lookup, nil
}

func (s *projectService) UpdateMemberRole(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID, role string) (models.Lookup[*models.ProjectMember], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, projectID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[*models.ProjectMember](), err
	}

	member, err := s.projectRepo.UpdateMemberRole(ctx, projectID, userID, role)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.NotAccessible[*models.ProjectMember](), apperrors.NotFound(msgMemberNotFound)
		}
		return models.NotAccessible[*models.ProjectMember](), err
	}
	return models.Found(member), nil
}

func (s *projectService) Stats(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.ProjectStats], error) {
	lookup, err := s.access.VisibleProject(ctx, caller, id)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[*models.ProjectStats](), err
	}

	stats, err := s.projectRepo.Stats(ctx, id, s.now())
	if err != nil {
		return models.NotAccessible[*models.ProjectStats](), err
	}
	return models.Found(stats), nil
}
