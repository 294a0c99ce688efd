package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/database"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// ReminderRepository defines the interface for reminder data access.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	ListForTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) ([]*models.Reminder, error)
	// ListUpcoming returns the user's unsent reminders due in [from, to], soonest first.
	ListUpcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Reminder, error)
	Update(ctx context.Context, id uuid.UUID, update models.ReminderUpdate) (*models.Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ClaimDue leases up to claim.Limit unsent reminders due at claim.Now and
	// counts the attempt. Leased rows, rows locked by a concurrent claim and
	// rows that reached claim.MaxAttempts are skipped.
	ClaimDue(ctx context.Context, claim models.ReminderClaim) ([]*models.DueReminder, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	// RecordFailure stores the delivery error and the earliest next attempt.
	RecordFailure(ctx context.Context, id uuid.UUID, lastErr string, retryAt time.Time) error
}

type reminderRepository struct {
	db *database.DB
}

var _ ReminderRepository = (*reminderRepository)(nil)

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *database.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

const reminderSelect = `
	SELECT r.id, r.task_id, r.user_id, r.remind_at, r.type, r.is_sent, r.created_at,
	       t.id, t.title, t.deadline
	FROM reminders r
	JOIN tasks t ON t.id = r.task_id`

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	var rem models.Reminder
	var task models.ReminderTask
	err := row.Scan(&rem.ID, &rem.TaskID, &rem.UserID, &rem.RemindAt, &rem.Type, &rem.IsSent, &rem.CreatedAt,
		&task.ID, &task.Title, &task.Deadline)
	if err != nil {
		return nil, err
	}
	rem.Task = &task
	return &rem, nil
}

func (r *reminderRepository) queryReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	reminders := []*models.Reminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if reminder.Type == "" {
		reminder.Type = models.ReminderTypePush
	}

	query := `
		INSERT INTO reminders (task_id, user_id, remind_at, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_sent, created_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		reminder.TaskID,
		reminder.UserID,
		reminder.RemindAt,
		reminder.Type,
	).Scan(&reminder.ID, &reminder.IsSent, &reminder.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	rem, err := scanReminder(r.db.Conn(ctx).QueryRow(ctx, reminderSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rem, nil
}

func (r *reminderRepository) ListForTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) ([]*models.Reminder, error) {
	return r.queryReminders(ctx,
		reminderSelect+` WHERE r.task_id = $1 AND r.user_id = $2 ORDER BY r.remind_at ASC, r.id ASC`,
		taskID, userID)
}

func (r *reminderRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Reminder, error) {
	return r.queryReminders(ctx, reminderSelect+`
		WHERE r.user_id = $1 AND NOT r.is_sent AND r.remind_at >= $2 AND r.remind_at <= $3
		ORDER BY r.remind_at ASC, r.id ASC`,
		userID, from, to)
}

func (r *reminderRepository) Update(ctx context.Context, id uuid.UUID, update models.ReminderUpdate) (*models.Reminder, error) {
	var set setBuilder
	if update.RemindAt != nil {
		set.set("remind_at", *update.RemindAt)
	}
	if update.Type != nil {
		set.set("type", *update.Type)
	}
	if !set.empty() {
		// A rescheduled reminder starts its delivery attempts over.
		set.set("attempts", 0)
		set.set("next_attempt_at", nil)
		set.set("last_error", nil)

		sets, idArg := set.clause(id)
		result, err := r.db.Conn(ctx).Exec(ctx, `UPDATE reminders SET `+sets+` WHERE id = `+idArg, set.args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update reminder: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, apperrors.ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *reminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reminderRepository) ClaimDue(ctx context.Context, claim models.ReminderClaim) ([]*models.DueReminder, error) {
	// One statement, so the lease commits before any delivery starts.
	query := `
		WITH claimable AS (
			SELECT r.id
			FROM reminders r
			JOIN users u ON u.id = r.user_id
			WHERE NOT r.is_sent
			  AND r.remind_at <= $1
			  AND (r.next_attempt_at IS NULL OR r.next_attempt_at <= $1)
			  AND r.attempts < $3
			  AND u.is_active
			ORDER BY r.remind_at ASC
			LIMIT $2
			FOR UPDATE OF r SKIP LOCKED
		), claimed AS (
			UPDATE reminders r
			SET attempts = r.attempts + 1, next_attempt_at = $4
			FROM claimable c
			WHERE r.id = c.id
			RETURNING r.id, r.task_id, r.user_id, r.remind_at, r.type, r.is_sent, r.created_at, r.attempts
		)
		SELECT c.id, c.task_id, c.user_id, c.remind_at, c.type, c.is_sent, c.created_at, c.attempts,
		       t.title, t.deadline, u.email, u.first_name || ' ' || u.last_name, u.push_token
		FROM claimed c
		JOIN tasks t ON t.id = c.task_id
		JOIN users u ON u.id = c.user_id
		ORDER BY c.remind_at ASC`

	rows, err := r.db.Conn(ctx).Query(ctx, query, claim.Now, claim.Limit, claim.MaxAttempts, claim.LeaseUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due reminders: %w", err)
	}
	defer rows.Close()

	var due []*models.DueReminder
	for rows.Next() {
		var d models.DueReminder
		err := rows.Scan(&d.ID, &d.TaskID, &d.UserID, &d.RemindAt, &d.Type, &d.IsSent, &d.CreatedAt, &d.Attempts,
			&d.TaskTitle, &d.TaskDeadline, &d.UserEmail, &d.UserName, &d.PushToken)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}
		due = append(due, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminders: %w", err)
	}
	return due, nil
}

// MarkSent flips is_sent to true. Already-sent reminders are left untouched.
func (r *reminderRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Conn(ctx).Exec(ctx, `UPDATE reminders SET is_sent = TRUE WHERE id = $1 AND NOT is_sent`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (r *reminderRepository) RecordFailure(ctx context.Context, id uuid.UUID, lastErr string, retryAt time.Time) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE reminders SET last_error = $2, next_attempt_at = $3 WHERE id = $1 AND NOT is_sent`,
		id, lastErr, retryAt)
	if err != nil {
		return fmt.Errorf("failed to record reminder failure: %w", err)
	}
	return nil
}
