package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

// attachmentField is the multipart form field carrying an upload.
const attachmentField = "file"

// ActivityHandler handles comments and attachments on tasks.
type ActivityHandler struct {
	commentService    services.CommentService
	attachmentService services.AttachmentService
	logger            *zap.Logger
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(commentService services.CommentService, attachmentService services.AttachmentService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		commentService:    commentService,
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the activity handler's routes on the given mux.
func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	id := validation.PathUUID("id")

	mux.HandleFunc("POST /api/tasks/{id}/comments",
		p.Route().Validate(id, validation.JSON[commentRequest]()).Authenticate().Handle(h.CreateComment))
	mux.HandleFunc("GET /api/tasks/{id}/comments",
		p.Route().Validate(id).Authenticate().Handle(h.ListComments))
	mux.HandleFunc("POST /api/tasks/{id}/attachments",
		p.Route().Validate(id, validation.Multipart(attachmentField)).Authenticate().Handle(h.Upload))
	mux.HandleFunc("GET /api/tasks/{id}/attachments",
		p.Route().Validate(id).Authenticate().Handle(h.ListAttachments))
}

// CreateComment handles POST /api/tasks/{id}/comments
func (h *ActivityHandler) CreateComment(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[commentRequest](r)

	lookup, err := h.commentService.Create(r.Context(), caller, validation.PathID(r, "id"), req.Content)
	comment, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.Created(w, comment, "Comment added")
}

// ListComments handles GET /api/tasks/{id}/comments
func (h *ActivityHandler) ListComments(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.commentService.ListForTask(r.Context(), caller, validation.PathID(r, "id"))
	comments, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(comments), "Task comments")
}

// Upload handles POST /api/tasks/{id}/attachments
func (h *ActivityHandler) Upload(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	fh := validation.File(r, attachmentField)
	file, err := fh.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	lookup, err := h.attachmentService.Upload(r.Context(), caller, validation.PathID(r, "id"), services.Upload{
		FileName: fh.Filename,
		Content:  file,
	})
	attachment, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	h.logger.Info("Attachment uploaded",
		zap.String("task_id", attachment.TaskID.String()),
		zap.String("mime_type", attachment.MimeType),
		zap.Int64("size", attachment.FileSize))
	return response.Created(w, attachment, "File uploaded successfully")
}

// ListAttachments handles GET /api/tasks/{id}/attachments
func (h *ActivityHandler) ListAttachments(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.attachmentService.ListForTask(r.Context(), caller, validation.PathID(r, "id"))
	attachments, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(attachments), "Task attachments")
}
