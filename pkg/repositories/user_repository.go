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

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter, page models.Page) ([]*models.User, int, error)
	Update(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPushToken(ctx context.Context, id uuid.UUID, token *string) error
	// UpsertByEmail creates the user unless the email is taken. It reports whether a row was created.
	UpsertByEmail(ctx context.Context, user *models.User) (bool, error)
	Stats(ctx context.Context, id uuid.UUID, now time.Time) (*models.UserStats, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	db *database.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password, first_name, last_name, role, is_active, push_token, created_at, updated_at`

var userSortColumns = map[string]string{
	"email":     "email",
	"firstName": "first_name",
	"lastName":  "last_name",
	"role":      "role",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.PushToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleStudent
	}

	query := `
		INSERT INTO users (email, password, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, is_active, created_at, updated_at`

	user.Email = models.NormalizeEmail(user.Email)
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter, page models.Page) ([]*models.User, int, error) {
	var where whereBuilder
	if filter.Role != nil {
		where.and("role = " + where.arg(*filter.Role))
	}
	if filter.IsActive != nil {
		where.and("is_active = " + where.arg(*filter.IsActive))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + where.String()
	if err := r.db.Conn(ctx).QueryRow(ctx, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	order, err := orderBy(userSortColumns, "id", page)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + userColumns + ` FROM users` + where.String() + order + limitOffset(&where, page)

	rows, err := r.db.Conn(ctx).Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	var set setBuilder
	if update.FirstName != nil {
		set.set("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		set.set("last_name", *update.LastName)
	}
	if update.Email != nil {
		set.set("email", models.NormalizeEmail(*update.Email))
	}
	if update.IsActive != nil {
		set.set("is_active", *update.IsActive)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}
	set.set("updated_at", time.Now())

	sets, idArg := set.clause(id)
	query := `UPDATE users SET ` + sets + ` WHERE id = ` + idArg + ` RETURNING ` + userColumns

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, set.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password = $1, updated_at = now() WHERE id = $2`, hash, id)
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	query := `UPDATE users SET role = $1, updated_at = now() WHERE id = $2 RETURNING ` + userColumns

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, role, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return user, nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.exec(ctx, "set active flag",
		`UPDATE users SET is_active = $1, updated_at = now() WHERE id = $2`, active, id)
}

func (r *userRepository) SetPushToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.exec(ctx, "set push token",
		`UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`, token, id)
}

// exec runs a single-row update and maps zero affected rows to ErrNotFound.
func (r *userRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpsertByEmail(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (email, password, first_name, last_name, role, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT ((lower(email))) DO NOTHING
		RETURNING id, created_at, updated_at`

	user.Email = models.NormalizeEmail(user.Email)
	err := r.db.Conn(ctx).QueryRow(ctx, query,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}
	user.IsActive = true
	return true, nil
}

// Stats counts tasks the user created or is assigned to, plus project memberships.
func (r *userRepository) Stats(ctx context.Context, id uuid.UUID, now time.Time) (*models.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*) FILTER (WHERE status = 'OVERDUE' OR (status <> 'COMPLETED' AND deadline < $2)),
			(SELECT COUNT(*) FROM project_members WHERE user_id = $1)
		FROM tasks
		WHERE creator_id = $1 OR assignee_id = $1`

	var stats models.UserStats
	err := r.db.Conn(ctx).QueryRow(ctx, query, id, now).Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
		&stats.ActiveProjects,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	stats.CompletionRate = models.CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	return &stats, nil
}
