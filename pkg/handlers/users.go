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

// UsersHandler handles user administration endpoints.
type UsersHandler struct {
	userService services.UserService
	logger      *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(userService services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	id := validation.PathUUID("id")

	mux.HandleFunc("GET /api/users",
		p.Route().Validate(validation.Query[userListQuery]()).Authorize(auth.AdminRoles...).Handle(h.List))
	mux.HandleFunc("GET /api/users/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Get))
	mux.HandleFunc("PUT /api/users/{id}",
		p.Route().Validate(id, validation.JSON[updateUserRequest]()).Authenticate().Handle(h.Update))
	mux.HandleFunc("DELETE /api/users/{id}",
		p.Route().Validate(id).Authenticate().Handle(h.Deactivate))
	mux.HandleFunc("PUT /api/users/{id}/role",
		p.Route().Validate(id, validation.JSON[updateRoleRequest]()).Authorize(auth.AdminRoles...).Handle(h.UpdateRole))
	mux.HandleFunc("GET /api/users/{id}/stats",
		p.Route().Validate(id).Authenticate().Handle(h.Stats))
}

// List handles GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) error {
	q := validation.QueryOf[userListQuery](r)

	result, err := h.userService.List(r.Context(), models.UserFilter{Role: q.Role, IsActive: q.IsActive}, q.ToPage())
	if err != nil {
		return err
	}
	return response.Paginated(w, result, "Users retrieved")
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) error {
	user, err := h.userService.Get(r.Context(), validation.PathID(r, "id"))
	if err != nil {
		return err
	}
	return response.OK(w, user, "User found")
}

// Update handles PUT /api/users/{id}
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateUserRequest](r)

	update := models.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsActive:  req.IsActive,
	}
	user, err := h.userService.Update(r.Context(), caller, validation.PathID(r, "id"), update)
	if err != nil {
		return err
	}
	return response.OK(w, user, "User updated successfully")
}

// Deactivate handles DELETE /api/users/{id}
// Users are never removed; the account is marked inactive.
func (h *UsersHandler) Deactivate(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	id := validation.PathID(r, "id")
	if err := h.userService.Deactivate(r.Context(), caller, id); err != nil {
		return err
	}
	h.logger.Info("User deactivated",
		zap.String("user_id", id.String()),
		zap.String("by", caller.ID.String()))
	return response.OK(w, nil, "User deactivated successfully")
}

// UpdateRole handles PUT /api/users/{id}/role
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateRoleRequest](r)

	user, err := h.userService.UpdateRole(r.Context(), caller, validation.PathID(r, "id"), req.Role)
	if err != nil {
		return err
	}
	return response.OK(w, user, "User role updated successfully")
}

// Stats handles GET /api/users/{id}/stats
func (h *UsersHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	stats, err := h.userService.Stats(r.Context(), caller, validation.PathID(r, "id"))
	if err != nil {
		return err
	}
	return response.OK(w, stats, "User statistics")
}
