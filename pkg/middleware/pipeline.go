package middleware

import (
	"net/http"

	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

// HandlerFunc is a controller. It returns errors instead of writing failure
// responses; the pipeline hands them to the terminal error writer.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Pipeline builds route chains from named stages. Whatever order the stages
// are declared in, they run as validate, authenticate, authorize, handle.
type Pipeline struct {
	auth   *auth.Middleware
	errors auth.ErrorWriter
}

func NewPipeline(authMiddleware *auth.Middleware, errors auth.ErrorWriter) *Pipeline {
	return &Pipeline{auth: authMiddleware, errors: errors}
}

// Route starts a new chain.
func (p *Pipeline) Route() *Route {
	return &Route{pipeline: p}
}

// Route is one chain under construction.
type Route struct {
	pipeline     *Pipeline
	rules        []validation.Rule
	authenticate bool
	roles        []models.Role
}

// Validate adds validation rules. All rules run and all failures are reported together.
func (rt *Route) Validate(rules ...validation.Rule) *Route {
	rt.rules = append(rt.rules, rules...)
	return rt
}

// Authenticate requires a valid bearer token.
func (rt *Route) Authenticate() *Route {
	rt.authenticate = true
	return rt
}

// Authorize restricts the route to roles. It implies Authenticate.
func (rt *Route) Authorize(roles ...models.Role) *Route {
	rt.authenticate = true
	rt.roles = append(rt.roles, roles...)
	return rt
}

// Handle terminates the chain with fn.
func (rt *Route) Handle(fn HandlerFunc) http.HandlerFunc {
	p := rt.pipeline

	h := func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			p.errors.WriteError(w, r, err)
		}
	}
	if len(rt.roles) > 0 {
		h = p.auth.RequireRole(rt.roles...)(h)
	}
	if rt.authenticate {
		h = p.auth.RequireAuth(h)
	}
	if len(rt.rules) > 0 {
		h = rt.validate(h)
	}
	return h
}

func (rt *Route) validate(next http.HandlerFunc) http.HandlerFunc {
	rules := rt.rules
	errs := rt.pipeline.errors
	return func(w http.ResponseWriter, r *http.Request) {
		r, err := validation.Check(r, rules...)
		if err != nil {
			errs.WriteError(w, r, err)
			return
		}
		next(w, r)
	}
}
