package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

const msgTaskNotAccessible = "Task not found or access denied"

// ReminderInput holds the fields of a new reminder.
type ReminderInput struct {
	TaskID   uuid.UUID
	RemindAt time.Time
	Type     models.ReminderType
}

// ReminderService defines the interface for reminder operations.
type ReminderService interface {
	// Create schedules a reminder for the caller on a task they can access.
	Create(ctx context.Context, caller *auth.Identity, input ReminderInput) (*models.Reminder, error)
	// Upcoming returns the caller's unsent reminders due within days.
	Upcoming(ctx context.Context, caller *auth.Identity, days int) ([]*models.Reminder, error)
	// ListForTask returns the caller's reminders on a task they can access.
	ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Reminder], error)
	Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.ReminderUpdate) (models.Lookup[*models.Reminder], error)
	Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Reminder], error)
}

type reminderService struct {
	reminderRepo repositories.ReminderRepository
	access       Access
	logger       *zap.Logger
	now          func() time.Time
}

var _ ReminderService = (*reminderService)(nil)

// NewReminderService creates a new reminder service with dependencies.
func NewReminderService(reminderRepo repositories.ReminderRepository, access Access, logger *zap.Logger) ReminderService {
	return &reminderService{
		reminderRepo: reminderRepo,
		access:       access,
		logger:       logger.Named("reminder-service"),
		now:          time.Now,
	}
}

func (s *reminderService) Create(ctx context.Context, caller *auth.Identity, input ReminderInput) (*models.Reminder, error) {
	lookup, err := s.access.VisibleTask(ctx, caller, input.TaskID)
	if err != nil {
		return nil, err
	}
	task, ok := lookup.Get()
	if !ok {
		return nil, apperrors.BadRequest(msgTaskNotAccessible)
	}

	reminderType := input.Type
	if reminderType == "" {
		reminderType = models.ReminderTypePush
	}

	reminder := &models.Reminder{
		TaskID:   task.ID,
		UserID:   caller.ID,
		RemindAt: input.RemindAt,
		Type:     reminderType,
	}
	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	reminder.Task = &models.ReminderTask{ID: task.ID, Title: task.Title, Deadline: task.Deadline}
	return reminder, nil
}

func (s *reminderService) Upcoming(ctx context.Context, caller *auth.Identity, days int) ([]*models.Reminder, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	now := s.now()
	return s.reminderRepo.ListUpcoming(ctx, caller.ID, now, now.AddDate(0, 0, days))
}

func (s *reminderService) ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Reminder], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, taskID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[[]*models.Reminder](), err
	}

	reminders, err := s.reminderRepo.ListForTaskAndUser(ctx, taskID, caller.ID)
	if err != nil {
		return models.NotAccessible[[]*models.Reminder](), err
	}
	return models.Found(reminders), nil
}

// visible loads a reminder and applies the reminder access predicate.
func (s *reminderService) visible(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Reminder], error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return notAccessible[*models.Reminder](err)
	}
	ok, err := s.access.CanAccessReminder(ctx, caller, reminder)
	if err != nil || !ok {
		return models.NotAccessible[*models.Reminder](), err
	}
	return models.Found(reminder), nil
}

func (s *reminderService) Update(ctx context.Context, caller *auth.Identity, id uuid.UUID, update models.ReminderUpdate) (models.Lookup[*models.Reminder], error) {
	lookup, err := s.visible(ctx, caller, id)
	if err != nil || !lookup.IsFound() {
		return lookup, err
	}

	updated, err := s.reminderRepo.Update(ctx, id, update)
	if err != nil {
		return notAccessible[*models.Reminder](err)
	}
	return models.Found(updated), nil
}

func (s *reminderService) Delete(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Reminder], error) {
	lookup, err := s.visible(ctx, caller, id)
	if err != nil || !lookup.IsFound() {
		return lookup, err
	}

	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		return notAccessible[*models.Reminder](err)
	}
	return lookup, nil
}
