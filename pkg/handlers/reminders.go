package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

const msgReminderNotFound = "Reminder not found"

// RemindersHandler handles reminder endpoints.
type RemindersHandler struct {
	reminderService services.ReminderService
	logger          *zap.Logger
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(reminderService services.ReminderService, logger *zap.Logger) *RemindersHandler {
	return &RemindersHandler{
		reminderService: reminderService,
		logger:          logger,
	}
}

// RegisterRoutes registers the reminders handler's routes on the given mux.
func (h *RemindersHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	id := validation.PathUUID("id")

	mux.HandleFunc("POST /api/reminders",
		p.Route().Validate(validation.JSON[createReminderRequest]()).Authenticate().Handle(h.Create))
	mux.HandleFunc("GET /api/reminders/upcoming",
		p.Route().Validate(validation.Query[validation.DaysQuery]()).Authenticate().Handle(h.Upcoming))
	mux.HandleFunc("GET /api/reminders/task/{taskId}",
		p.Route().Validate(validation.PathUUID("taskId")).Authenticate().Handle(h.ListForTask))
	mux.HandleFunc("PUT /api/reminders/{id}",
		p.Route().Validate(id, validation.JSON[updateReminderRequest]()).Authenticate().Handle(h.Update))
	mux.HandleFunc("DELETE /api/reminders/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Delete))
}

// Create handles POST /api/reminders
func (h *RemindersHandler) Create(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[createReminderRequest](r)

	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return err
	}
	input := services.ReminderInput{
		TaskID:   taskID,
		RemindAt: req.RemindAt.Time,
	}
	if req.Type != nil {
		input.Type = *req.Type
	}

	reminder, err := h.reminderService.Create(r.Context(), caller, input)
	if err != nil {
		return err
	}
	return response.Created(w, reminder, "Reminder created successfully")
}

// Upcoming handles GET /api/reminders/upcoming
func (h *RemindersHandler) Upcoming(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	q := validation.QueryOf[validation.DaysQuery](r)

	reminders, err := h.reminderService.Upcoming(r.Context(), caller, q.Days)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(reminders), "Upcoming reminders")
}

// ListForTask handles GET /api/reminders/task/{taskId}
func (h *RemindersHandler) ListForTask(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.reminderService.ListForTask(r.Context(), caller, validation.PathID(r, "taskId"))
	reminders, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(reminders), "Task reminders")
}

// Update handles PUT /api/reminders/{id}
func (h *RemindersHandler) Update(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateReminderRequest](r)

	update := models.ReminderUpdate{RemindAt: req.RemindAt.Ptr(), Type: req.Type}
	lookup, err := h.reminderService.Update(r.Context(), caller, validation.PathID(r, "id"), update)
	reminder, err := visible(lookup, err, msgReminderNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, reminder, "Reminder updated successfully")
}

// Delete handles DELETE /api/reminders/{id}
func (h *RemindersHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.reminderService.Delete(r.Context(), caller, validation.PathID(r, "id"))
	if _, err := visible(lookup, err, msgReminderNotFound); err != nil {
		return err
	}
	return response.OK(w, nil, "Reminder deleted successfully")
}
