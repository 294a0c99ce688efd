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

// TaskRepository defines the interface for task data access.
// Listing methods taking a userID only return tasks that user created, is
// assigned to, or can see through project membership.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, userID uuid.UUID, filter models.TaskFilter, page models.Page) ([]*models.Task, int, error)
	ListOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Task, error)
	ListUpcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Task, error)
	ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*models.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error)

	// Stats counts tasks the user created or is assigned to.
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TaskStats, error)
}

type taskRepository struct {
	db *database.DB
}

var _ TaskRepository = (*taskRepository)(nil)

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *database.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.deadline, t.status, t.priority,
	       t.creator_id, t.assignee_id, t.project_id, t.parent_task_id, t.created_at, t.updated_at,
	       c.id, c.email, c.first_name, c.last_name,
	       a.id, a.email, a.first_name, a.last_name,
	       p.id, p.name,
	       (SELECT COUNT(*) FROM tasks s WHERE s.parent_task_id = t.id)
	FROM tasks t
	JOIN users c ON c.id = t.creator_id
	LEFT JOIN users a ON a.id = t.assignee_id
	LEFT JOIN projects p ON p.id = t.project_id`

// taskVisibleTo restricts t to tasks the user at placeholder ph may see.
func taskVisibleTo(ph string) string {
	return `(t.creator_id = ` + ph + ` OR t.assignee_id = ` + ph + ` OR EXISTS (
		SELECT 1 FROM project_members m WHERE m.project_id = t.project_id AND m.user_id = ` + ph + `))`
}

var taskSortColumns = map[string]string{
	"title":     "t.title",
	"deadline":  "t.deadline",
	"status":    "t.status",
	"priority":  "t.priority",
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var creator models.UserSummary
	var (
		assigneeID                                 *uuid.UUID
		assigneeEmail, assigneeFirst, assigneeLast *string
		projectID                                  *uuid.UUID
		projectName                                *string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Deadline, &t.Status, &t.Priority,
		&t.CreatorID, &t.AssigneeID, &t.ProjectID, &t.ParentTaskID, &t.CreatedAt, &t.UpdatedAt,
		&creator.ID, &creator.Email, &creator.FirstName, &creator.LastName,
		&assigneeID, &assigneeEmail, &assigneeFirst, &assigneeLast,
		&projectID, &projectName,
		&t.SubtaskCount,
	)
	if err != nil {
		return nil, err
	}

	t.Creator = &creator
	if assigneeID != nil {
		t.Assignee = &models.UserSummary{
			ID:        *assigneeID,
			Email:     *assigneeEmail,
			FirstName: *assigneeFirst,
			LastName:  *assigneeLast,
		}
	}
	if projectID != nil {
		t.Project = &models.ProjectSummary{ID: *projectID, Name: *projectName}
	}
	return &t, nil
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusNotStarted
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}

	query := `
		INSERT INTO tasks (title, description, deadline, status, priority,
		                   creator_id, assignee_id, project_id, parent_task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Deadline,
		task.Status,
		task.Priority,
		task.CreatorID,
		task.AssigneeID,
		task.ProjectID,
		task.ParentTaskID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := scanTask(r.db.Conn(ctx).QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error) {
	var set setBuilder
	if update.Title != nil {
		set.set("title", *update.Title)
	}
	if update.Description != nil {
		set.set("description", *update.Description)
	}
	if update.Deadline != nil {
		set.set("deadline", *update.Deadline)
	}
	if update.Status != nil {
		set.set("status", *update.Status)
	}
	if update.Priority != nil {
		set.set("priority", *update.Priority)
	}
	if update.AssigneeID != nil {
		set.set("assignee_id", *update.AssigneeID)
	}
	if update.ProjectID != nil {
		set.set("project_id", *update.ProjectID)
	}
	if update.ParentTaskID != nil {
		set.set("parent_task_id", *update.ParentTaskID)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	set.set("updated_at", time.Now())

	sets, idArg := set.clause(id)
	result, err := r.db.Conn(ctx).Exec(ctx, `UPDATE tasks SET `+sets+` WHERE id = `+idArg, set.args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	return r.Update(ctx, id, models.TaskUpdate{Status: &status})
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, userID uuid.UUID, filter models.TaskFilter, page models.Page) ([]*models.Task, int, error) {
	var where whereBuilder
	where.and(taskVisibleTo(where.arg(userID)))
	if filter.Status != nil {
		where.and("t.status = " + where.arg(*filter.Status))
	}
	if filter.Priority != nil {
		where.and("t.priority = " + where.arg(*filter.Priority))
	}
	if filter.AssigneeID != nil {
		where.and("t.assignee_id = " + where.arg(*filter.AssigneeID))
	}
	if filter.ProjectID != nil {
		where.and("t.project_id = " + where.arg(*filter.ProjectID))
	}
	if filter.DeadlineFrom != nil {
		where.and("t.deadline >= " + where.arg(*filter.DeadlineFrom))
	}
	if filter.DeadlineTo != nil {
		where.and("t.deadline <= " + where.arg(*filter.DeadlineTo))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks t` + where.String()
	if err := r.db.Conn(ctx).QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	order, err := orderBy(taskSortColumns, "t.id", page)
	if err != nil {
		return nil, 0, err
	}

	tasks, err := r.queryTasks(ctx, taskSelect+where.String()+order+limitOffset(&where, page), where.args...)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) ListOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*models.Task, error) {
	query := taskSelect + ` WHERE ` + taskVisibleTo("$1") + `
		AND t.deadline < $2 AND t.status <> 'COMPLETED'
		ORDER BY t.deadline ASC, t.id ASC`
	return r.queryTasks(ctx, query, userID, now)
}

func (r *taskRepository) ListUpcoming(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.Task, error) {
	query := taskSelect + ` WHERE ` + taskVisibleTo("$1") + `
		AND t.deadline >= $2 AND t.deadline <= $3 AND t.status <> 'COMPLETED'
		ORDER BY t.deadline ASC, t.id ASC`
	return r.queryTasks(ctx, query, userID, from, to)
}

func (r *taskRepository) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*models.Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.parent_task_id = $1 ORDER BY t.deadline ASC, t.id ASC`, parentID)
}

func (r *taskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.project_id = $1 ORDER BY t.deadline ASC, t.id ASC`, projectID)
}

func (r *taskRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TaskStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status IN ('NOT_STARTED', 'IN_PROGRESS')),
			COUNT(*) FILTER (WHERE status <> 'COMPLETED' AND deadline < $2)
		FROM tasks
		WHERE creator_id = $1 OR assignee_id = $1`

	var stats models.TaskStats
	err := r.db.Conn(ctx).QueryRow(ctx, query, userID, now).Scan(
		&stats.Total,
		&stats.Completed,
		&stats.Pending,
		&stats.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}
	return &stats, nil
}
