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

// ProjectRepository defines the interface for project and membership data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// List returns projects the user created or is a member of.
	List(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error)
	Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, member *models.ProjectMember) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	UpdateMemberRole(ctx context.Context, projectID, userID uuid.UUID, role string) (*models.ProjectMember, error)
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error)
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)

	Stats(ctx context.Context, id uuid.UUID, now time.Time) (*models.ProjectStats, error)
}

type projectRepository struct {
	db *database.DB
}

var _ ProjectRepository = (*projectRepository)(nil)

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *database.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectSelect = `
	SELECT p.id, p.name, p.description, p.start_date, p.end_date, p.status, p.creator_id,
	       p.created_at, p.updated_at,
	       u.id, u.email, u.first_name, u.last_name,
	       (SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
	       (SELECT COUNT(*) FROM project_members m WHERE m.project_id = p.id)
	FROM projects p
	JOIN users u ON u.id = p.creator_id`

var projectSortColumns = map[string]string{
	"name":      "p.name",
	"status":    "p.status",
	"startDate": "p.start_date",
	"endDate":   "p.end_date",
	"createdAt": "p.created_at",
	"updatedAt": "p.updated_at",
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	var creator models.UserSummary
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.Status, &p.CreatorID,
		&p.CreatedAt, &p.UpdatedAt,
		&creator.ID, &creator.Email, &creator.FirstName, &creator.LastName,
		&p.TaskCount, &p.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	p.Creator = &creator
	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.Status == "" {
		project.Status = models.ProjectStatusActive
	}
	if project.StartDate.IsZero() {
		project.StartDate = time.Now()
	}

	query := `
		INSERT INTO projects (name, description, start_date, end_date, status, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.StartDate,
		project.EndDate,
		project.Status,
		project.CreatorID,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := scanProject(r.db.Conn(ctx).QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (r *projectRepository) List(ctx context.Context, userID uuid.UUID, filter models.ProjectFilter, page models.Page) ([]*models.Project, int, error) {
	var where whereBuilder
	user := where.arg(userID)
	where.and(`(p.creator_id = ` + user + ` OR EXISTS (
		SELECT 1 FROM project_members m WHERE m.project_id = p.id AND m.user_id = ` + user + `))`)
	if filter.Status != nil {
		where.and("p.status = " + where.arg(*filter.Status))
	}
	if filter.CreatorID != nil {
		where.and("p.creator_id = " + where.arg(*filter.CreatorID))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM projects p` + where.String()
	if err := r.db.Conn(ctx).QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	order, err := orderBy(projectSortColumns, "p.id", page)
	if err != nil {
		return nil, 0, err
	}
	query := projectSelect + where.String() + order + limitOffset(&where, page)

	rows, err := r.db.Conn(ctx).Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, total, nil
}

func (r *projectRepository) Update(ctx context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	var set setBuilder
	if update.Name != nil {
		set.set("name", *update.Name)
	}
	if update.Description != nil {
		set.set("description", *update.Description)
	}
	if update.StartDate != nil {
		set.set("start_date", *update.StartDate)
	}
	if update.EndDate != nil {
		set.set("end_date", *update.EndDate)
	}
	if update.Status != nil {
		set.set("status", *update.Status)
	}
	if !set.empty() {
		set.set("updated_at", time.Now())
		sets, idArg := set.clause(id)
		result, err := r.db.Conn(ctx).Exec(ctx, `UPDATE projects SET `+sets+` WHERE id = `+idArg, set.args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
		if result.RowsAffected() == 0 {
			return nil, apperrors.ErrNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	if member.Role == "" {
		member.Role = models.MemberRoleDefault
	}

	query := `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`

	err := r.db.Conn(ctx).QueryRow(ctx, query, member.ProjectID, member.UserID, member.Role).
		Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to add project member: %w", err)
	}
	return nil
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result, err := r.db.Conn(ctx).Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove project member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

const memberSelect = `
	SELECT m.id, m.project_id, m.user_id, m.role, m.joined_at,
	       u.id, u.email, u.first_name, u.last_name
	FROM project_members m
	JOIN users u ON u.id = m.user_id`

func scanMember(row pgx.Row) (*models.ProjectMember, error) {
	var m models.ProjectMember
	var user models.UserSummary
	err := row.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt,
		&user.ID, &user.Email, &user.FirstName, &user.LastName)
	if err != nil {
		return nil, err
	}
	m.User = &user
	return &m, nil
}

func (r *projectRepository) UpdateMemberRole(ctx context.Context, projectID, userID uuid.UUID, role string) (*models.ProjectMember, error) {
	result, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE project_members SET role = $1 WHERE project_id = $2 AND user_id = $3`, role, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrNotFound
	}

	member, err := scanMember(r.db.Conn(ctx).QueryRow(ctx,
		memberSelect+` WHERE m.project_id = $1 AND m.user_id = $2`, projectID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to reload project member: %w", err)
	}
	return member, nil
}

func (r *projectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, memberSelect+` WHERE m.project_id = $1 ORDER BY m.joined_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	members := []*models.ProjectMember{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project members: %w", err)
	}
	return members, nil
}

func (r *projectRepository) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project membership: %w", err)
	}
	return exists, nil
}

func (r *projectRepository) Stats(ctx context.Context, id uuid.UUID, now time.Time) (*models.ProjectStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status <> 'COMPLETED' AND deadline < $2),
			(SELECT COUNT(*) FROM project_members WHERE project_id = $1)
		FROM tasks
		WHERE project_id = $1`

	var stats models.ProjectStats
	err := r.db.Conn(ctx).QueryRow(ctx, query, id, now).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
		&stats.TotalMembers,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute project stats: %w", err)
	}
	stats.CompletionRate = models.CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	return &stats, nil
}
