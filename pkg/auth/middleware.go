package auth

import (
	"net/http"
	"slices"

	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

// Role sets used by route gates.
var (
	AdminRoles       = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
	SuperAdminRoles  = []models.Role{models.RoleSuperAdmin}
	ProjectLeadRoles = []models.Role{models.RoleProjectLead, models.RoleAdmin, models.RoleSuperAdmin}
)

// MsgInsufficientPermissions is returned when a role gate rejects the caller.
const MsgInsufficientPermissions = "Insufficient permissions"

// ErrorWriter renders a rejected request. It is the same terminal error
// translator the handlers use.
type ErrorWriter interface {
	WriteError(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware provides HTTP authentication and role-gate middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	errors      ErrorWriter
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware with the given AuthService.
func NewMiddleware(authService AuthService, errors ErrorWriter, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		errors:      errors,
		logger:      logger,
	}
}

// RequireAuth authenticates the request and stores the caller and token in its context.
// Any authentication failure halts the chain with 401.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.errors.WriteError(w, r, err)
			return
		}

		ctx := WithIdentity(r.Context(), identity)
		ctx = contextWithToken(ctx, token)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole rejects callers whose role is not in roles with 403.
// It must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r.Context())
			if !ok {
				m.errors.WriteError(w, r, apperrors.Unauthorized("Authentication required"))
				return
			}
			if !slices.Contains(roles, identity.Role) {
				m.logger.Debug("Role gate rejected caller",
					zap.String("user_id", identity.ID.String()),
					zap.String("role", string(identity.Role)),
					zap.String("path", r.URL.Path))
				m.errors.WriteError(w, r, apperrors.Forbidden(MsgInsufficientPermissions))
				return
			}
			next(w, r)
		}
	}
}
