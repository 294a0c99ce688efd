package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/logging"
)

// PostgreSQL error codes mapped to 400.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
	pgCheckViolation      = "23514"
)

const msgInternal = "Internal server error"

// Translator is the terminal error handler. Handlers return errors and never
// write failure envelopes themselves.
type Translator struct {
	logger     *zap.Logger
	production bool
}

// NewTranslator creates a Translator. Outside production, 500 responses carry
// the error chain in the error field.
func NewTranslator(logger *zap.Logger, production bool) *Translator {
	return &Translator{logger: logger.Named("errors"), production: production}
}

// classified is the envelope an error maps to.
type classified struct {
	status  int
	message string
	detail  string
}

// Classify maps err onto a status code and caller-facing message.
func (t *Translator) Classify(err error) (status int, message, detail string) {
	c := t.classify(err)
	return c.status, c.message, c.detail
}

func (t *Translator) classify(err error) classified {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return classified{http.StatusBadRequest, "Validation failed", err.Error()}
	case errors.Is(err, apperrors.ErrBadRequest), errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrInvalidRole):
		return classified{status: http.StatusBadRequest, message: apperrors.Message(err, "Bad request")}
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrInactiveAccount):
		return classified{status: http.StatusUnauthorized, message: apperrors.Message(err, "Unauthorized")}
	case errors.Is(err, apperrors.ErrForbidden):
		return classified{status: http.StatusForbidden, message: apperrors.Message(err, "Forbidden")}
	case errors.Is(err, apperrors.ErrNotFound):
		return classified{status: http.StatusNotFound, message: apperrors.Message(err, "Resource not found")}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return classified{status: http.StatusBadRequest, message: "Duplicate entry"}
		case pgForeignKeyViolation:
			return classified{status: http.StatusBadRequest, message: "Referenced record does not exist"}
		case pgInvalidText:
			return classified{status: http.StatusBadRequest, message: "Invalid identifier"}
		case pgCheckViolation:
			return classified{status: http.StatusBadRequest, message: "Invalid field value"}
		}
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return classified{status: http.StatusBadRequest, message: "Request body too large"}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return classified{status: http.StatusBadRequest, message: "Invalid JSON body", detail: err.Error()}
	}

	c := classified{status: http.StatusInternalServerError, message: msgInternal}
	if !t.production {
		c.detail = err.Error()
	}
	return c
}

// WriteError writes the envelope for err. It satisfies auth.ErrorWriter.
func (t *Translator) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	c := t.classify(err)

	if c.status >= http.StatusInternalServerError {
		t.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("error", logging.SanitizeError(err)))
	} else {
		t.logger.Debug("Request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", c.status),
			zap.String("message", c.message))
	}

	if err := Error(w, c.status, c.message, c.detail); err != nil {
		t.logger.Error("Failed to write error response", zap.Error(err))
	}
}

// NotFoundHandler answers requests that match no route.
func (t *Translator) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.WriteError(w, r, apperrors.NotFound("Route "+r.Method+" "+r.URL.Path+" not found"))
	}
}
