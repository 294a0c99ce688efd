// Package validation checks request path values, query strings, JSON bodies
// and multipart uploads before a handler runs. Parsed inputs are stored in the
// request context and read back with Body, QueryOf, PathID and File.
package validation

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
)

// Rule checks one part of a request. It returns the request, possibly with
// parsed values added to its context, and the failures it found. A non-nil
// error aborts validation and is passed to the error translator as is.
type Rule func(r *http.Request) (*http.Request, []string, error)

// Check runs every rule and collects all failures. Any failure yields a single
// validation error whose message joins them with ", ".
func Check(r *http.Request, rules ...Rule) (*http.Request, error) {
	var failures []string
	for _, rule := range rules {
		next, found, err := rule(r)
		if err != nil {
			return r, err
		}
		r = next
		failures = append(failures, found...)
	}
	if len(failures) > 0 {
		return r, apperrors.New(apperrors.ErrValidation, strings.Join(failures, ", "))
	}
	return r, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "query"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
	return validate
}

// Struct validates v and returns one message per failed field. Messages come
// from the field's msg tag when present.
func Struct(v any) []string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	failures := make([]string, 0, len(fieldErrs))
	seen := make(map[string]bool)
	for _, fe := range fieldErrs {
		msg := fieldMessage(t, fe)
		if seen[msg] {
			continue
		}
		seen[msg] = true
		failures = append(failures, msg)
	}
	return failures
}

func fieldMessage(t reflect.Type, fe validator.FieldError) string {
	// StructNamespace is "Type.Field" or "Type.Embedded.Field".
	path := strings.Split(fe.StructNamespace(), ".")
	if len(path) > 1 {
		if f, ok := fieldByPath(t, path[1:]); ok {
			if msg := f.Tag.Get("msg"); msg != "" {
				return msg
			}
		}
	}
	return defaultMessage(fe)
}

func fieldByPath(t reflect.Type, path []string) (reflect.StructField, bool) {
	var f reflect.StructField
	for _, name := range path {
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return f, false
		}
		var ok bool
		if f, ok = t.FieldByName(name); !ok {
			return f, false
		}
		t = f.Type
	}
	return f, true
}

func defaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "uuid", "uuid4":
		return fe.Field() + " must be a valid UUID"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte":
		return fe.Field() + " must be at most " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

type (
	bodyKey  struct{}
	queryKey struct{}
	pathKey  string
	fileKey  string
)

func withValue(r *http.Request, key, value any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}
