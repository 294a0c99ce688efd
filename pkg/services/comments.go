package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

// CommentService adds and lists comments on tasks the caller can access.
type CommentService interface {
	Create(ctx context.Context, caller *auth.Identity, taskID uuid.UUID, content string) (models.Lookup[*models.Comment], error)
	ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Comment], error)
}

type commentService struct {
	commentRepo repositories.CommentRepository
	userRepo    repositories.UserRepository
	access      Access
}

var _ CommentService = (*commentService)(nil)

func NewCommentService(commentRepo repositories.CommentRepository, userRepo repositories.UserRepository, access Access) CommentService {
	return &commentService{commentRepo: commentRepo, userRepo: userRepo, access: access}
}

func (s *commentService) Create(ctx context.Context, caller *auth.Identity, taskID uuid.UUID, content string) (models.Lookup[*models.Comment], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, taskID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[*models.Comment](), err
	}

	comment := &models.Comment{TaskID: taskID, UserID: caller.ID, Content: content}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return notAccessible[*models.Comment](err)
	}

	if user, err := s.userRepo.GetByID(ctx, caller.ID); err == nil {
		comment.User = user.Summary()
	}
	return models.Found(comment), nil
}

func (s *commentService) ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Comment], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, taskID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[[]*models.Comment](), err
	}

	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return models.NotAccessible[[]*models.Comment](), err
	}
	return models.Found(comments), nil
}
