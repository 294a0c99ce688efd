package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// Upload is a file received for a task.
type Upload struct {
	FileName string
	Content  io.Reader
}

// AttachmentService stores files on tasks the caller can access.
type AttachmentService interface {
	// Upload writes the file under <dir>/<taskID>/ and records it. Files larger
	// than the configured limit are rejected.
	Upload(ctx context.Context, caller *auth.Identity, taskID uuid.UUID, upload Upload) (models.Lookup[*models.Attachment], error)
	ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Attachment], error)
}

type attachmentService struct {
	repo    repositories.AttachmentRepository
	access  Access
	dir     string
	maxSize int64
	logger  *zap.Logger
}

var _ AttachmentService = (*attachmentService)(nil)

// NewAttachmentService creates an attachment service storing files under dir.
func NewAttachmentService(repo repositories.AttachmentRepository, access Access, dir string, maxSize int64, logger *zap.Logger) AttachmentService {
	return &attachmentService{
		repo:    repo,
		access:  access,
		dir:     dir,
		maxSize: maxSize,
		logger:  logger.Named("attachment-service"),
	}
}

func (s *attachmentService) Upload(ctx context.Context, caller *auth.Identity, taskID uuid.UUID, upload Upload) (models.Lookup[*models.Attachment], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, taskID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[*models.Attachment](), err
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Content, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return models.NotAccessible[*models.Attachment](), fmt.Errorf("failed to read upload: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return models.NotAccessible[*models.Attachment](), apperrors.BadRequest("File is empty")
	}

	mime := mimetype.Detect(header)
	ext := mime.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(upload.FileName))
	}

	relPath := filepath.Join(taskID.String(), uuid.NewString()+ext)
	size, err := s.store(relPath, io.MultiReader(bytes.NewReader(header), upload.Content))
	if err != nil {
		return models.NotAccessible[*models.Attachment](), err
	}

	attachment := &models.Attachment{
		TaskID:   taskID,
		UserID:   caller.ID,
		FileName: filepath.Base(upload.FileName),
		FilePath: filepath.ToSlash(relPath),
		FileSize: size,
		MimeType: mime.String(),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		s.remove(relPath)
		return notAccessible[*models.Attachment](err)
	}

	s.logger.Info("Attachment stored",
		zap.String("task_id", taskID.String()),
		zap.String("path", attachment.FilePath),
		zap.Int64("size", size),
		zap.String("mime_type", attachment.MimeType))

	return models.Found(attachment), nil
}

// store copies src to relPath under the upload dir, enforcing maxSize.
func (s *attachmentService) store(relPath string, src io.Reader) (int64, error) {
	fullPath := filepath.Join(s.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	size, err := io.Copy(f, io.LimitReader(src, s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.remove(relPath)
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}
	if size > s.maxSize {
		s.remove(relPath)
		return 0, apperrors.BadRequest(fmt.Sprintf("File exceeds the maximum size of %d bytes", s.maxSize))
	}
	return size, nil
}

func (s *attachmentService) remove(relPath string) {
	if err := os.Remove(filepath.Join(s.dir, relPath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove upload", zap.String("path", relPath), zap.Error(err))
	}
}

func (s *attachmentService) ListForTask(ctx context.Context, caller *auth.Identity, taskID uuid.UUID) (models.Lookup[[]*models.Attachment], error) {
	lookup, err := s.access.VisibleTask(ctx, caller, taskID)
	if err != nil || !lookup.IsFound() {
		return models.NotAccessible[[]*models.Attachment](), err
	}

	attachments, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return models.NotAccessible[[]*models.Attachment](), err
	}
	return models.Found(attachments), nil
}
