package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

const (
	msgProjectNotFound  = "Project not found"
	msgParentNotFound   = "Parent task not found"
	msgAssigneeNotFound = "Assignee not found"
	msgOwnParent        = "A task cannot be its own parent"

	// DefaultUpcomingDays is the look-ahead window for upcoming tasks and reminders.
	DefaultUpcomingDays = 7
)

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Title        string
	Description  *string
	Deadline     time.Time
	Priority     models.TaskPriority
	AssigneeID   *uuid.UUID
	ProjectID    *uuid.UUID
	ParentTaskID *uuid.UUID
}

// TaskService defines the interface for task operations.
// Read-by-id and mutations return NotAccessible unless the caller is the
// creator, the assignee, or a member of the task's project.
type TaskService interface {
	Create(ctx context.Context, caller *auth.Identity, input TaskInput) (*models.Task, error)
	List(ctx context.Context, caller *auth.Identity, filter models.TaskFilter, page models.Page) (*models.PageResult[*models.Task], error)
	Get(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.TaskDetail], error)
	Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.TaskUpdate) (models.Lookup[*models.Task], error)
	UpdateStatus(ctx context.Context, caller *auth.Identity, id uuid.UUID, status models.TaskStatus) (models.Lookup[*models.Task], error)
	Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Task], error)

	Overdue(ctx context.Context, caller *auth.Identity) ([]*models.Task, error)
	Upcoming(ctx context.Context, caller *auth.Identity, days int) ([]*models.Task, error)
	Stats(ctx context.Context, caller *auth.Identity) (*models.TaskStats, error)
}

type taskService struct {
	taskRepo       repositories.TaskRepository
	userRepo       repositories.UserRepository
	reminderRepo   repositories.ReminderRepository
	commentRepo    repositories.CommentRepository
	attachmentRepo repositories.AttachmentRepository
	access         Access
	notifier       Notifier
	logger         *zap.Logger
	now            func() time.Time
}

var _ TaskService = (*taskService)(nil)

// NewTaskService creates a new task service with dependencies.
func NewTaskService(
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	reminderRepo repositories.ReminderRepository,
	commentRepo repositories.CommentRepository,
	attachmentRepo repositories.AttachmentRepository,
	access Access,
	notifier Notifier,
	logger *zap.Logger,
) TaskService {
	return &taskService{
		taskRepo:       taskRepo,
		userRepo:       userRepo,
		reminderRepo:   reminderRepo,
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		access:         access,
		notifier:       notifier,
		logger:         logger.Named("task-service"),
		now:            time.Now,
	}
}

// checkReferences verifies that referenced project, parent and assignee exist
// and that the caller can see the project and parent.
func (s *taskService) checkReferences(ctx context.Context, caller *auth.Identity, projectID, parentID, assigneeID *uuid.UUID) error {
	if projectID != nil {
		lookup, err := s.access.VisibleProject(ctx, caller, *projectID)
		if err != nil {
			return err
		}
		if !lookup.IsFound() {
			return apperrors.NotFound(msgProjectNotFound)
		}
	}
	if parentID != nil {
		lookup, err := s.access.VisibleTask(ctx, caller, *parentID)
		if err != nil {
			return err
		}
		if !lookup.IsFound() {
			return apperrors.NotFound(msgParentNotFound)
		}
	}
	if assigneeID != nil {
		if _, err := s.userRepo.GetByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound(msgAssigneeNotFound)
			}
			return err
		}
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, caller *auth.Identity, input TaskInput) (*models.Task, error) {
	if err := s.checkReferences(ctx, caller, input.ProjectID, input.ParentTaskID, input.AssigneeID); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Deadline:     input.Deadline,
		Status:       models.TaskStatusNotStarted,
		Priority:     priority,
		CreatorID:    caller.ID,
		AssigneeID:   input.AssigneeID,
		ProjectID:    input.ProjectID,
		ParentTaskID: input.ParentTaskID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.notifyAssignee(ctx, caller, task)

	created, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// notifyAssignee tells a newly assigned user about the task. Failures are logged only.
func (s *taskService) notifyAssignee(ctx context.Context, caller *auth.Identity, task *models.Task) {
	if task.AssigneeID == nil || *task.AssigneeID == caller.ID {
		return
	}
	err := s.notifier.Notify(ctx, *task.AssigneeID,
		"New task assigned",
		fmt.Sprintf("You have been assigned %q, due %s", task.Title, task.Deadline.UTC().Format(time.RFC1123)),
		models.NotificationInfo)
	if err != nil {
		s.logger.Warn("Failed to notify assignee",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}
}

func (s *taskService) List(ctx context.Context, caller *auth.Identity, filter models.TaskFilter, page models.Page) (*models.PageResult[*models.Task], error) {
	page = page.Normalize("deadline", models.SortAsc)
	tasks, total, err := s.taskRepo.List(ctx, caller.ID, filter, page)
	if err != nil {
		return nil, err
	}
	return &models.PageResult[*models.Task]{Items: tasks, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *taskService) Get(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.TaskDetail], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, id)
	task, ok := lookup.Get()
	if err != nil || !ok {
		return models.NotAccessible[*models.TaskDetail](), err
	}

	detail := &models.TaskDetail{Task: *task}

	if task.ParentTaskID != nil {
		parent, err := s.taskRepo.GetByID(ctx, *task.ParentTaskID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return models.NotAccessible[*models.TaskDetail](), err
		}
		detail.Parent = parent
	}
	if detail.Subtasks, err = s.taskRepo.ListSubtasks(ctx, id); err != nil {
		return models.NotAccessible[*models.TaskDetail](), err
	}
	if detail.Comments, err = s.commentRepo.ListByTask(ctx, id); err != nil {
		return models.NotAccessible[*models.TaskDetail](), err
	}
	if detail.Attachments, err = s.attachmentRepo.ListByTask(ctx, id); err != nil {
		return models.NotAccessible[*models.TaskDetail](), err
	}
	if detail.Reminders, err = s.reminderRepo.ListForTaskAndUser(ctx, id, caller.ID); err != nil {
		return models.NotAccessible[*models.TaskDetail](), err
	}

	return models.Found(detail), nil
}

func (s *taskService) Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.TaskUpdate) (models.Lookup[*models.Task], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, id)
	task, ok := lookup.Get()
	if err != nil || !ok {
		return lookup, err
	}

	if update.ParentTaskID != nil && *update.ParentTaskID == id {
		return models.NotAccessible[*models.Task](), apperrors.BadRequest(msgOwnParent)
	}
	if err := s.checkReferences(ctx, caller, update.ProjectID, update.ParentTaskID, update.AssigneeID); err != nil {
		return models.NotAccessible[*models.Task](), err
	}

	updated, err := s.taskRepo.Update(ctx, id, update)
	if err != nil {
		return notAccessible[*models.Task](err)
	}

	if update.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *update.AssigneeID) {
		s.notifyAssignee(ctx, caller, updated)
	}
	return models.Found(updated), nil
}

func (s *taskService) UpdateStatus(ctx context.Context, caller *auth.Identity, id uuid.UUID, status models.TaskStatus) (models.Lookup[*models.Task], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, id)
	if err != nil || !lookup.IsFound() {
		return lookup, err
	}

	updated, err := s.taskRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return notAccessible[*models.Task](err)
	}
	return models.Found(updated), nil
}

// Delete removes the task with its subtasks, reminders and comments.
func (s *taskService) Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Task], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, id)
	if err != nil || !lookup.IsFound() {
		return lookup, err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return notAccessible[*models.Task](err)
	}

	s.logger.Info("Task deleted",
		zap.String("task_id", id.String()),
		zap.String("by", caller.ID.String()))
	return lookup, nil
}

func (s *taskService) Overdue(ctx context.Context, caller *auth.Identity) ([]*models.Task, error) {
	return s.taskRepo.ListOverdue(ctx, caller.ID, s.now())
}

func (s *taskService) Upcoming(ctx context.Context, caller *auth.Identity, days int) ([]*models.Task, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	now := s.now()
	return s.taskRepo.ListUpcoming(ctx, caller.ID, now, now.AddDate(0, 0, days))
}

func (s *taskService) Stats(ctx context.Context, caller *auth.Identity) (*models.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, caller.ID, s.now())
	if err != nil {
		return nil, err
	}
	stats.CompletionRate = math.Round(models.CompletionRate(stats.Completed, stats.Total))
	return stats, nil
}
