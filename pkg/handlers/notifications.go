package handlers

import (
	"net/http"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

// NotificationsHandler serves the caller's in-app notifications.
type NotificationsHandler struct {
	notificationService services.NotificationService
}

func NewNotificationsHandler(notificationService services.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notificationService: notificationService}
}

func (h *NotificationsHandler) RegisterRoutes(mux *http.ServeMux, p *middleware.Pipeline) {
	mux.HandleFunc("GET /api/notifications",
		p.Route().Validate(validation.Query[notificationListQuery]()).Authenticate().Handle(h.List))
	mux.HandleFunc("PATCH /api/notifications/{id}/read",
		p.Route().Validate(validation.PathUUID("id")).Authenticate().Handle(h.MarkRead))
}

// List handles GET /api/notifications
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}
	q := validation.QueryOf[notificationListQuery](r)

	result, err := h.notificationService.List(r.Context(), caller, q.ToPage())
	if err != nil {
		return err
	}
	return response.Paginated(w, result, "Notifications retrieved")
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) error {
	caller, err := auth.RequireIdentity(r.Context())
	if err != nil {
		return err
	}

	lookup, err := h.notificationService.MarkRead(r.Context(), caller, validation.PathID(r, "id"))
	notification, err := visible(lookup, err, "Notification not found")
	if err != nil {
		return err
	}
	return response.OK(w, notification, "Notification marked as read")
}
