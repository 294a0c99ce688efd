package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/database"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// AttachmentRepository defines the interface for task attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	// ListByTask returns attachments newest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Attachment, error)
}

type attachmentRepository struct {
	db *database.DB
}

var _ AttachmentRepository = (*attachmentRepository)(nil)

// NewAttachmentRepository creates a new attachment repository.
func NewAttachmentRepository(db *database.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *models.Attachment) error {
	query := `
		INSERT INTO attachments (task_id, user_id, file_name, file_path, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		a.TaskID, a.UserID, a.FileName, a.FilePath, a.FileSize, a.MimeType,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	return nil
}

func (r *attachmentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Attachment, error) {
	query := `
		SELECT a.id, a.task_id, a.user_id, a.file_name, a.file_path, a.file_size, a.mime_type, a.created_at,
		       u.id, u.email, u.first_name, u.last_name
		FROM attachments a
		JOIN users u ON u.id = a.user_id
		WHERE a.task_id = $1
		ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.db.Conn(ctx).Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []*models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		var user models.UserSummary
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.FileName, &a.FilePath, &a.FileSize, &a.MimeType, &a.CreatedAt,
			&user.ID, &user.Email, &user.FirstName, &user.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.User = &user
		attachments = append(attachments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attachments: %w", err)
	}
	return attachments, nil
}
