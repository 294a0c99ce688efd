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

// AuthHandler handles account sign-up, sign-in and the caller's own profile.
type AuthHandler struct {
	authService services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	mux.HandleFunc("POST /api/auth/register",
		p.Route().Validate(validation.JSON[registerRequest]()).Handle(h.Register))
	mux.HandleFunc("POST /api/auth/login",
		p.Route().Validate(validation.JSON[loginRequest]()).Handle(h.Login))
	mux.HandleFunc("GET /api/auth/profile",
		p.Route().Authenticate().Handle(h.Profile))
	mux.HandleFunc("PUT /api/auth/profile",
		p.Route().Validate(validation.JSON[updateProfileRequest]()).Authenticate().Handle(h.UpdateProfile))
	mux.HandleFunc("PUT /api/auth/change-password",
		p.Route().Validate(validation.JSON[changePasswordRequest]()).Authenticate().Handle(h.ChangePassword))
	mux.HandleFunc("POST /api/auth/logout",
		p.Route().Authenticate().Handle(h.Logout))
	mux.HandleFunc("PUT /api/auth/push-token",
		p.Route().Validate(validation.JSON[pushTokenRequest]()).Authenticate().Handle(h.RegisterPushToken))
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	req := validation.Body[registerRequest](r)

	input := services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleStudent,
	}
	if req.Role != nil {
		input.Role = *req.Role
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		return err
	}
	return response.Created(w, result, "User registered successfully")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	req := validation.Body[loginRequest](r)

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.OK(w, result, "Login successful")
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(r.Context(), caller)
	if err != nil {
		return err
	}
	return response.OK(w, user, "User profile")
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[updateProfileRequest](r)

	user, err := h.authService.UpdateProfile(r.Context(), caller, req.FirstName, req.LastName)
	if err != nil {
		return err
	}
	return response.OK(w, user, "Profile updated")
}

// ChangePassword handles PUT /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[changePasswordRequest](r)

	if err := h.authService.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return response.OK(w, nil, "Password changed successfully")
}

// Logout handles POST /api/auth/logout
// Revokes the presented token when a denylist is configured; otherwise the
// client simply discards it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	if err := h.authService.Logout(r.Context(), caller); err != nil {
		return err
	}
	h.logger.Debug("User logged out", zap.String("user_id", caller.ID.String()))
	return response.OK(w, nil, "Logged out successfully")
}

// RegisterPushToken handles PUT /api/auth/push-token
func (h *AuthHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	req := validation.Body[pushTokenRequest](r)

	if err := h.authService.RegisterPushToken(r.Context(), caller, req.Token); err != nil {
		return err
	}
	return response.OK(w, nil, "Push token registered")
}
