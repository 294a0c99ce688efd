package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	conds []string
	args  []any
}

// arg registers v and returns its placeholder.
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// and adds a condition. Use arg() to build its placeholders.
func (w *whereBuilder) and(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// setBuilder accumulates assignments for a partial UPDATE.
type setBuilder struct {
	sets []string
	args []any
}

func (s *setBuilder) set(column string, v any) {
	s.args = append(s.args, v)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setBuilder) empty() bool {
	return len(s.sets) == 0
}

// clause returns the SET list plus the placeholder for the trailing id argument.
func (s *setBuilder) clause(id any) (string, string) {
	s.args = append(s.args, id)
	return strings.Join(s.sets, ", "), fmt.Sprintf("$%d", len(s.args))
}

// orderBy maps an API sort field onto a column from columns. idColumn breaks
// ties so paging is stable.
func orderBy(columns map[string]string, idColumn string, page models.Page) (string, error) {
	column, ok := columns[page.SortBy]
	if !ok {
		return "", apperrors.BadRequest(fmt.Sprintf("cannot sort by %q", page.SortBy))
	}
	direction := "ASC"
	if page.SortOrder == models.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", column, direction, idColumn, direction), nil
}

// limitOffset renders the paging clause using placeholders from w.
func limitOffset(w *whereBuilder, page models.Page) string {
	return fmt.Sprintf(" LIMIT %s OFFSET %s", w.arg(page.Limit), w.arg(page.Offset()))
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}
