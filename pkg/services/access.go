package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

// Access evaluates per-entity access predicates. Every check reads current
// rows; nothing is cached between requests.
type Access interface {
	CanAccessTask(ctx context.Context, caller *auth.Identity, task *models.Task) (bool, error)
	CanAccessProject(ctx context.Context, caller *auth.Identity, project *models.Project) (bool, error)
	CanDeleteProject(caller *auth.Identity, project *models.Project) bool
	CanAccessReminder(ctx context.Context, caller *auth.Identity, reminder *models.Reminder) (bool, error)

	// VisibleTask loads a task and applies CanAccessTask. A missing task and
	// an inaccessible one both come back as NotAccessible.
	VisibleTask(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Task], error)
	// VisibleProject loads a project and applies CanAccessProject.
	VisibleProject(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Project], error)
}

type access struct {
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
}

var _ Access = (*access)(nil)

func NewAccess(projects repositories.ProjectRepository, tasks repositories.TaskRepository) Access {
	return &access{projects: projects, tasks: tasks}
}

// CanAccessTask: creator, assignee, or member of the task's project.
func (a *access) CanAccessTask(ctx context.Context, caller *auth.Identity, task *models.Task) (bool, error) {
	if task.CreatorID == caller.ID {
		return true, nil
	}
	if task.AssigneeID != nil && *task.AssigneeID == caller.ID {
		return true, nil
	}
	if task.ProjectID == nil {
		return false, nil
	}
	return a.projects.IsMember(ctx, *task.ProjectID, caller.ID)
}

// CanAccessProject: creator or member.
func (a *access) CanAccessProject(ctx context.Context, caller *auth.Identity, project *models.Project) (bool, error) {
	if project.CreatorID == caller.ID {
		return true, nil
	}
	return a.projects.IsMember(ctx, project.ID, caller.ID)
}

// CanDeleteProject: creator only. Membership is not enough.
func (a *access) CanDeleteProject(caller *auth.Identity, project *models.Project) bool {
	return project.CreatorID == caller.ID
}

// CanAccessReminder: the reminder's owner, or anyone who can access its task.
func (a *access) CanAccessReminder(ctx context.Context, caller *auth.Identity, reminder *models.Reminder) (bool, error) {
	if reminder.UserID == caller.ID {
		return true, nil
	}
	lookup, err := a.VisibleTask(ctx, caller, reminder.TaskID)
	if err != nil {
		return false, err
	}
	return lookup.IsFound(), nil
}

func (a *access) VisibleTask(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Task], error) {
	task, err := a.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.NotAccessible[*models.Task](), nil
		}
		return models.NotAccessible[*models.Task](), err
	}

	ok, err := a.CanAccessTask(ctx, caller, task)
	if err != nil {
		return models.NotAccessible[*models.Task](), err
	}
	if !ok {
		return models.NotAccessible[*models.Task](), nil
	}
	return models.Found(task), nil
}

func (a *access) VisibleProject(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Project], error) {
	project, err := a.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.NotAccessible[*models.Project](), nil
		}
		return models.NotAccessible[*models.Project](), err
	}

	ok, err := a.CanAccessProject(ctx, caller, project)
	if err != nil {
		return models.NotAccessible[*models.Project](), err
	}
	if !ok {
		return models.NotAccessible[*models.Project](), nil
	}
	return models.Found(project), nil
}

// notAccessible maps a repository ErrNotFound, usually from a row deleted
// between the access check and the write, onto NotAccessible.
func notAccessible[T any](err error) (models.Lookup[T], error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.NotAccessible[T](), nil
	}
	return models.NotAccessible[T](), err
}
