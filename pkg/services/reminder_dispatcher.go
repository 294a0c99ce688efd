package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/logging"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/notify"
	"github.com/deadline-tracker/deadline-tracker/pkg/repositories"
	"github.com/deadline-tracker/deadline-tracker/pkg/retry"
)

const (
	// DefaultDispatchBatchSize caps how many reminders one tick claims.
	DefaultDispatchBatchSize = 50

	// MaxDeliveryAttempts caps how often one reminder is claimed. After that it
	// stays unsent with its last error recorded.
	MaxDeliveryAttempts = 5

	// deliveryLease keeps a claimed reminder away from other dispatchers while
	// it is being delivered.
	deliveryLease = 5 * time.Minute

	initialFailureBackoff = time.Minute
	maxFailureBackoff     = time.Hour
)

// ReminderDispatcher delivers reminders whose remind time has passed.
type ReminderDispatcher interface {
	// ProcessDue claims up to one batch of due reminders, delivers them and
	// marks the delivered ones sent. Returns the number marked sent.
	ProcessDue(ctx context.Context) (int, error)

	// RunScheduler starts a background goroutine that calls ProcessDue on the given interval.
	// It runs immediately on startup, then repeats every interval.
	// Cancel the context to stop the scheduler.
	RunScheduler(ctx context.Context, interval time.Duration)
}

type reminderDispatcher struct {
	reminderRepo repositories.ReminderRepository
	notifier     Notifier
	pusher       notify.Pusher
	mailer       notify.Mailer
	batchSize    int
	retryCfg     *retry.Config
	logger       *zap.Logger
	now          func() time.Time
}

var _ ReminderDispatcher = (*reminderDispatcher)(nil)

func NewReminderDispatcher(
	reminderRepo repositories.ReminderRepository,
	notifier Notifier,
	pusher notify.Pusher,
	mailer notify.Mailer,
	batchSize int,
	logger *zap.Logger,
) ReminderDispatcher {
	if batchSize <= 0 {
		batchSize = DefaultDispatchBatchSize
	}
	return &reminderDispatcher{
		reminderRepo: reminderRepo,
		notifier:     notifier,
		pusher:       pusher,
		mailer:       mailer,
		batchSize:    batchSize,
		retryCfg:     retry.DefaultConfig(),
		logger:       logger.Named("reminder-dispatcher"),
		now:          time.Now,
	}
}

// ProcessDue handles each claimed reminder on its own. A delivered reminder is
// marked sent before anything else can fail, so it is never delivered twice
// because of a later row in the batch.
func (d *reminderDispatcher) ProcessDue(ctx context.Context) (int, error) {
	now := d.now()
	due, err := d.reminderRepo.ClaimDue(ctx, models.ReminderClaim{
		Now:         now,
		Limit:       d.batchSize,
		MaxAttempts: MaxDeliveryAttempts,
		LeaseUntil:  now.Add(deliveryLease),
	})
	if err != nil {
		return 0, err
	}

	var sent int
	var errs []error
	for _, r := range due {
		if err := d.deliver(ctx, r); err != nil {
			if err := d.recordFailure(ctx, r, err); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if err := d.reminderRepo.MarkSent(ctx, r.ID); err != nil {
			// The lease expires and the reminder is delivered again later.
			errs = append(errs, fmt.Errorf("failed to mark reminder %s sent: %w", r.ID, err))
			continue
		}
		sent++

		if err := d.notifier.Notify(ctx, r.UserID, "Task reminder", reminderText(r), models.NotificationReminder); err != nil {
			errs = append(errs, fmt.Errorf("failed to record notification for reminder %s: %w", r.ID, err))
		}
	}

	if sent > 0 {
		d.logger.Info("Reminders dispatched", zap.Int("sent", sent), zap.Int("claimed", len(due)))
	}
	return sent, errors.Join(errs...)
}

func (d *reminderDispatcher) recordFailure(ctx context.Context, r *models.DueReminder, cause error) error {
	reason := logging.SanitizeError(cause)
	fields := []zap.Field{
		zap.String("reminder_id", r.ID.String()),
		zap.String("type", string(r.Type)),
		zap.Int("attempt", r.Attempts),
		zap.String("error", reason),
	}
	if r.Attempts >= MaxDeliveryAttempts {
		d.logger.Error("Reminder delivery abandoned", fields...)
	} else {
		d.logger.Warn("Reminder delivery failed", fields...)
	}

	if err := d.reminderRepo.RecordFailure(ctx, r.ID, reason, d.now().Add(failureBackoff(r.Attempts))); err != nil {
		return fmt.Errorf("failed to record failure for reminder %s: %w", r.ID, err)
	}
	return nil
}

// failureBackoff doubles from one minute per attempt, capped at an hour.
func failureBackoff(attempts int) time.Duration {
	delay := initialFailureBackoff
	for i := 1; i < attempts && delay < maxFailureBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxFailureBackoff)
}

func (d *reminderDispatcher) deliver(ctx context.Context, r *models.DueReminder) error {
	return retry.DoIfRetryable(ctx, d.retryCfg, func() error {
		return d.send(ctx, r)
	})
}

func (d *reminderDispatcher) send(ctx context.Context, r *models.DueReminder) error {
	switch r.Type {
	case models.ReminderTypeEmail:
		return d.mailer.Send(ctx, r.UserEmail, "Reminder: "+r.TaskTitle, reminderEmailBody(r))
	default:
		token := ""
		if r.PushToken != nil {
			token = *r.PushToken
		}
		err := d.pusher.Push(ctx, token, notify.Message{
			Title: "Task reminder",
			Body:  reminderText(r),
			Data: map[string]string{
				"taskId":     r.TaskID.String(),
				"reminderId": r.ID.String(),
			},
		})
		if errors.Is(err, notify.ErrNoDeviceToken) {
			// No device registered; the in-app notification still reaches the user.
			d.logger.Debug("Skipping push for user without device token",
				zap.String("user_id", r.UserID.String()))
			return nil
		}
		return err
	}
}

func reminderText(r *models.DueReminder) string {
	return fmt.Sprintf("%q is due %s", r.TaskTitle, r.TaskDeadline.UTC().Format("Jan 2, 2006 15:04 MST"))
}

func reminderEmailBody(r *models.DueReminder) string {
	name := r.UserName
	if name == "" {
		name = r.UserEmail
	}
	return fmt.Sprintf("Hi %s,\r\n\r\nThis is a reminder that %s.\r\n", name, reminderText(r))
}

// RunScheduler starts a background loop that dispatches due reminders.
func (d *reminderDispatcher) RunScheduler(ctx context.Context, interval time.Duration) {
	go func() {
		d.logger.Info("Reminder scheduler started",
			zap.Duration("interval", interval),
			zap.Int("batch_size", d.batchSize))

		d.tick(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				d.logger.Info("Reminder scheduler stopped")
				return
			case <-ticker.C:
				d.tick(ctx)
			}
		}
	}()
}

func (d *reminderDispatcher) tick(ctx context.Context) {
	if _, err := d.ProcessDue(ctx); err != nil && ctx.Err() == nil {
		d.logger.Error("Reminder dispatch failed", zap.Error(err))
	}
}
