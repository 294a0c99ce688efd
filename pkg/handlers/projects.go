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

const msgProjectNotFound = "Project not found"

// ProjectsHandler handles project and membership endpoints.
type ProjectsHandler struct {
	projectService services.ProjectService
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	id := validation.PathUUID("id")
	member := validation.PathUUID("userId")

	mux.HandleFunc("POST /api/projects",
		p.Route().Validate(validation.JSON[createProjectRequest]()).Authenticate().Handle(h.Create))
	mux.HandleFunc("GET /api/projects",
		p.Route().Validate(validation.Query[projectListQuery]()).Authenticate().Handle(h.List))
	mux.HandleFunc("GET /api/projects/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Get))
	mux.HandleFunc("PUT /api/projects/{id}",
		p.Route().Validate(id, validation.JSON[updateProjectRequest]()).Authenticate().Handle(h.Update))
	mux.HandleFunc("DELETE /api/projects/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Delete))
	mux.HandleFunc("GET /api/projects/{id}/stats",
		p.Route().Validate(id).Authenticate().Handle(h.Stats))

	mux.HandleFunc("POST /api/projects/{id}/members",
		p.Route().Validate(id, validation.JSON[addMemberRequest]()).Authenticate().Handle(h.AddMember))
	mux.HandleFunc("DELETE /api/projects/{id}/members/{userId}",
		p.Route().Validate(id, member).Authenticate().Handle(h.RemoveMember))
	mux.HandleFunc("PUT /api/projects/{id}/members/{userId}/role",
		p.Route().Validate(id, member, validation.JSON[memberRoleRequest]()).Authenticate().Handle(h.UpdateMemberRole))
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[createProjectRequest](r)

	project, err := h.projectService.Create(r.Context(), caller, services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate.Ptr(),
		EndDate:     req.EndDate.Ptr(),
	})
	if err != nil {
		return err
	}
	return response.Created(w, project, "Project created successfully")
}

// List handles GET /api/projects
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	q := validation.QueryOf[projectListQuery](r)

	filter := models.ProjectFilter{Status: q.Status, CreatorID: q.CreatorID}
	result, err := h.projectService.List(r.Context(), caller, filter, q.ToPage())
	if err != nil {
		return err
	}
	return response.Paginated(w, result, "Projects retrieved")
}

// Get handles GET /api/projects/{id}
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.projectService.Get(r.Context(), caller, validation.PathID(r, "id"))
	project, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, project, "Project found")
}

// Update handles PUT /api/projects/{id}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateProjectRequest](r)

	update := models.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate.Ptr(),
		EndDate:     req.EndDate.Ptr(),
		Status:      req.Status,
	}
	lookup, err := h.projectService.Update(r.Context(), caller, validation.PathID(r, "id"), update)
	project, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, project, "Project updated successfully")
}

// Delete handles DELETE /api/projects/{id}
// Only the creator may delete; anyone else gets the same 404 as for a missing project.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.projectService.Delete(r.Context(), caller, validation.PathID(r, "id"))
	project, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	h.logger.Info("Project deleted",
		zap.String("project_id", project.ID.String()),
		zap.String("by", caller.ID.String()))
	return response.OK(w, nil, "Project deleted successfully")
}

// Stats handles GET /api/projects/{id}/stats
func (h *ProjectsHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.projectService.Stats(r.Context(), caller, validation.PathID(r, "id"))
	stats, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, stats, "Project statistics")
}

// AddMember handles POST /api/projects/{id}/members
func (h *ProjectsHandler) AddMember(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[addMemberRequest](r)

	role := req.Role
	if role == "" {
		role = models.MemberRoleDefault
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return err
	}

	lookup, err := h.projectService.AddMember(r.Context(), caller, validation.PathID(r, "id"), userID, role)
	member, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	return response.Created(w, member, "Member added to project")
}

// RemoveMember handles DELETE /api/projects/{id}/members/{userId}
func (h *ProjectsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.projectService.RemoveMember(r.Context(), caller, validation.PathID(r, "id"), validation.PathID(r, "userId"))
	if _, err := visible(lookup, err, msgProjectNotFound); err != nil {
		return err
	}
	return response.OK(w, nil, "Member removed from project")
}

// UpdateMemberRole handles PUT /api/projects/{id}/members/{userId}/role
func (h *ProjectsHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[memberRoleRequest](r)

	lookup, err := h.projectService.UpdateMemberRole(r.Context(), caller, validation.PathID(r, "id"), validation.PathID(r, "userId"), req.Role)
	member, err := visible(lookup, err, msgProjectNotFound)
	if err != nil {
		return err
	}
	return response.OK(w, member, "Member role updated successfully")
}
