package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrBadRequest         = errors.New("bad request")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRole        = errors.New("invalid role")
)

// Error pairs a sentinel kind with the message shown to API callers.
// errors.Is(err, kind) holds for any *Error built from that kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func NotFound(message string) error     { return New(ErrNotFound, message) }
func BadRequest(message string) error   { return New(ErrBadRequest, message) }
func Conflict(message string) error     { return New(ErrConflict, message) }
func Unauthorized(message string) error { return New(ErrUnauthorized, message) }
func Forbidden(message string) error    { return New(ErrForbidden, message) }

// Message returns the caller-facing message carried by err, or fallback when
// err does not carry one.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
