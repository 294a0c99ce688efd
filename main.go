package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/config"
	"github.com/deadline-tracker/deadline-tracker/pkg/database"
	"github.com/deadline-tracker/deadline-tracker/pkg/handlers"
	"github.com/deadline-tracker/deadline-tracker/pkg/logging"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/notify"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/seed"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return logConfig.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbURL := config.ResolveURLForDocker(cfg.Database.URL)
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(dbURL)),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Bool("firebase", cfg.Firebase.IsConfigured()),
		zap.Bool("smtp", cfg.SMTP.IsConfigured()),
		zap.Strings("cors_origins", cfg.CORS.AllowedOrigins))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:             dbURL,
		MaxConnections:  cfg.Database.MaxConnections,
		MaxConnIdleTime: cfg.Database.MaxConnIdle,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.MigrationsPath, logger.Named("migrations")); err != nil {
		return err
	}

	userRepo := repositories.NewUserRepository(db)
	projectRepo := repositories.NewProjectRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		created, err := seed.Apply(ctx, userRepo, hasher, file, logger.Named("seed"))
		if err != nil {
			return err
		}
		logger.Info("Seed applied", zap.String("file", cfg.SeedFile), zap.Int("created", created))
	}

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func(c *redis.Client) { _ = c.Close() }(redisClient)
		logger.Info("Token denylist enabled")
	} else {
		logger.Info("Redis not configured, logout will not revoke tokens")
	}
	denylist := auth.NewRedisDenylist(redisClient)

	pusher := newPusher(ctx, cfg, logger)
	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.SMTP.IsConfigured() {
		mailer = notify.NewSMTPMailer(&cfg.SMTP)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	access := services.NewAccess(projectRepo, taskRepo)
	notificationService := services.NewNotificationService(notificationRepo)

	svc := handlers.Services{
		Auth:          services.NewAuthService(userRepo, hasher, tokens, denylist, logger),
		Users:         services.NewUserService(userRepo, logger),
		Projects:      services.NewProjectService(db, projectRepo, taskRepo, userRepo, access, logger),
		Tasks:         services.NewTaskService(taskRepo, userRepo, reminderRepo, commentRepo, attachmentRepo, access, notificationService, logger),
		Reminders:     services.NewReminderService(reminderRepo, access, logger),
		Comments:      services.NewCommentService(commentRepo, userRepo, access),
		Attachments:   services.NewAttachmentService(attachmentRepo, access, cfg.Upload.Dir, cfg.Upload.MaxFileSize, logger),
		Notifications: notificationService,
	}

	if cfg.Reminders.DispatchEnabled {
		dispatcher := services.NewReminderDispatcher(reminderRepo, notificationService, pusher, mailer, cfg.Reminders.BatchSize, logger)
		dispatcher.RunScheduler(ctx, cfg.Reminders.DispatchInterval)
	}

	errs := response.NewTranslator(logger, cfg.IsProduction())
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(tokens, userRepo, denylist, logger), errs, logger.Named("auth"))
	pipeline := middleware.NewPipeline(authMiddleware, errs)

	mux := handlers.NewRouter(cfg, svc, pipeline, db, errs.NotFoundHandler(), logger)
	handler := middleware.Chain(mux,
		middleware.Recover(logger, errs),
		middleware.RequestLogger(logger.Named("http")),
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.MaxBytes(cfg.MaxBodySize),
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting deadline-tracker", zap.String("addr", server.Addr), zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newPusher returns the Firebase pusher when service account credentials are
// configured, and a log-only pusher otherwise.
func newPusher(ctx context.Context, cfg *config.Config, logger *zap.Logger) notify.Pusher {
	if !cfg.Firebase.IsConfigured() {
		logger.Info("Firebase not configured, push reminders will be logged")
		return notify.NewLogPusher(logger)
	}
	pusher, err := notify.NewFirebasePusher(ctx, &cfg.Firebase)
	if err != nil {
		logger.Error("Failed to initialize Firebase, push reminders will be logged",
			zap.String("error", logging.SanitizeError(err)))
		return notify.NewLogPusher(logger)
	}
	return pusher
}
