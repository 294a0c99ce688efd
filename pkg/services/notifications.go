package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

// Notifier records an in-app notification for a user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, kind models.NotificationType) error
}

// NotificationService lists and acknowledges the caller's notifications.
type NotificationService interface {
	Notifier
	List(ctx context.Context, caller *auth.Identity, page models.Page) (*models.PageResult[*models.Notification], error)
	// MarkRead returns NotAccessible unless the notification belongs to the caller.
	MarkRead(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Notification], error)
}

type notificationService struct {
	repo repositories.NotificationRepository
}

var _ NotificationService = (*notificationService)(nil)

func NewNotificationService(repo repositories.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, kind models.NotificationType) error {
	return s.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
	})
}

func (s *notificationService) List(ctx context.Context, caller *auth.Identity, page models.Page) (*models.PageResult[*models.Notification], error) {
	page = page.Normalize("createdAt", models.SortDesc)
	items, total, err := s.repo.ListByUser(ctx, caller.ID, page)
	if err != nil {
		return nil, err
	}
	return &models.PageResult[*models.Notification]{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Notification], error) {
	n, err := s.repo.MarkRead(ctx, id, caller.ID)
	if err != nil {
		return notAccessible[*models.Notification](err)
	}
	return models.Found(n), nil
}
