package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/config"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
)

// Services is the set of services the HTTP layer calls into.
type Services struct {
	Auth          services.AuthService
	Users         services.UserService
	Projects      services.ProjectService
	Tasks         services.TaskService
	Reminders     services.ReminderService
	Comments      services.CommentService
	Attachments   services.AttachmentService
	Notifications services.NotificationService
}

// NewRouter builds the mux with every API route, the health checks, the uploads file
// server and the not-found fallback.
func NewRouter(cfg *config.Config, svc Services, p *middleware.Pipeline, db Pinger, notFound http.HandlerFunc, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	NewAuthHandler(svc.Auth, logger.Named("auth")).RegisterRoutes(mux, p)
	NewUsersHandler(svc.Users, logger.Named("users")).RegisterRoutes(mux, p)
	NewProjectsHandler(svc.Projects, logger.Named("projects")).RegisterRoutes(mux, p)
	NewTasksHandler(svc.Tasks, logger.Named("tasks")).RegisterRoutes(mux, p)
	NewRemindersHandler(svc.Reminders, logger.Named("reminders")).RegisterRoutes(mux, p)
	NewActivityHandler(svc.Comments, svc.Attachments, logger.Named("activity")).RegisterRoutes(mux, p)
	NewNotificationsHandler(svc.Notifications).RegisterRoutes(mux, p)

	mux.Handle("GET /uploads/", UploadsHandler(cfg.Upload.Dir))
	mux.HandleFunc("/", notFound)
	return mux
}
