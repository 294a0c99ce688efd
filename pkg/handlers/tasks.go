package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

const msgTaskNotFound = "Task not found"

// TasksHandler handles task endpoints.
type TasksHandler struct {
	taskService services.TaskService
	logger      *zap.Logger
}

// NewTasksHandler creates a new tasks handler.
func NewTasksHandler(taskService services.TaskService, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// RegisterRoutes registers the tasks handler's routes on the given mux.
// Fixed paths like /api/tasks/overdue take precedence over /api/tasks/{id}.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	id := validation.PathUUID("id")

	mux.HandleFunc("POST /api/tasks",
		p.Route().Validate(validation.JSON[createTaskRequest]()).Authenticate().Handle(h.Create))
	mux.HandleFunc("GET /api/tasks",
		p.Route().Validate(validation.Query[taskListQuery]()).Authenticate().Handle(h.List))
	mux.HandleFunc("GET /api/tasks/overdue",
		p.Route().Authenticate().Handle(h.Overdue))
	mux.HandleFunc("GET /api/tasks/upcoming",
		p.Route().Validate(validation.Query[validation.DaysQuery]()).Authenticate().Handle(h.Upcoming))
	mux.HandleFunc("GET /api/tasks/stats",
		p.Route().Authenticate().Handle(h.Stats))

	mux.HandleFunc("GET /api/tasks/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Get))
	mux.HandleFunc("PUT /api/tasks/{id}",
		p.Route().Validate(id, validation.JSON[updateTaskRequest]()).Authenticate().Handle(h.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Delete))
	mux.HandleFunc("PATCH /api/tasks/{id}/status",
		p.Route().Validate(id, validation.JSON[taskStatusRequest]()).Authenticate().Handle(h.UpdateStatus))
}

// Create handles POST /api/tasks
func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[createTaskRequest](r)

	input := services.TaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     req.Deadline.Time,
		AssigneeID:   optionalID(req.AssigneeID),
		ProjectID:    optionalID(req.ProjectID),
		ParentTaskID: optionalID(req.ParentTaskID),
	}
	if req.Priority != nil {
		input.Priority = *req.Priority
	}

	task, err := h.taskService.Create(r.Context(), caller, input)
	if err != nil {
		return err
	}
	return response.Created(w, task, "Task created successfully")
}

// List handles GET /api/tasks
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	q := validation.QueryOf[taskListQuery](r)

	result, err := h.taskService.List(r.Context(), caller, q.filter, q.ToPage())
	if err != nil {
		return err
	}
	return response.Paginated(w, result, "Tasks retrieved")
}

// Get handles GET /api/tasks/{id}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.taskService.Get(r.Context(), caller, validation.PathID(r, "id"))
	task, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, task, "Task found")
}

// Update handles PUT /api/tasks/{id}
func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateTaskRequest](r)

	update := models.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Deadline:     req.Deadline.Ptr(),
		Status:       req.Status,
		Priority:     req.Priority,
		AssigneeID:   optionalID(req.AssigneeID),
		ProjectID:    optionalID(req.ProjectID),
		ParentTaskID: optionalID(req.ParentTaskID),
	}
	lookup, err := h.taskService.Update(r.Context(), caller, validation.PathID(r, "id"), update)
	task, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, task, "Task updated successfully")
}

// UpdateStatus handles PATCH /api/tasks/{id}/status
func (h *TasksHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[taskStatusRequest](r)

	lookup, err := h.taskService.UpdateStatus(r.Context(), caller, validation.PathID(r, "id"), req.Status)
	task, err := visible(lookup, err, msgTaskNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, task, "Task status updated successfully")
}

// Delete handles DELETE /api/tasks/{id}
func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.taskService.Delete(r.Context(), caller, validation.PathID(r, "id"))
	if _, err := visible(lookup, err, msgTaskNotFound); err != nil {
		return err
	}
	return response.OK(w, nil, "Task deleted successfully")
}

// Overdue handles GET /api/tasks/overdue
func (h *TasksHandler) Overdue(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	tasks, err := h.taskService.Overdue(r.Context(), caller)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(tasks), "Overdue tasks")
}

// Upcoming handles GET /api/tasks/upcoming
func (h *TasksHandler) Upcoming(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	q := validation.QueryOf[validation.DaysQuery](r)

	tasks, err := h.taskService.Upcoming(r.Context(), caller, q.Days)
	if err != nil {
		return err
	}
	return response.OK(w, nonNil(tasks), "Upcoming tasks")
}

// Stats handles GET /api/tasks/stats
func (h *TasksHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	stats, err := h.taskService.Stats(r.Context(), caller)
	if err != nil {
		return err
	}
	return response.OK(w, stats, "Task statistics")
}
