package handler

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Store errors
	ErrFrozen      = errors.New("store is frozen")
	ErrNotCallable = errors.New("binding factory must be a function")
	ErrEmptyName   = errors.New("binding name must not be empty")
	ErrNotBound    = errors.New("context property is not registered")
)

// Error is a domain error carrying an HTTP status and an exposure flag.
// Only exposed errors have their message written to clients.
type Error struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Expose  bool           `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e Error) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status code, 500 when unset.
func (e Error) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Exposed reports whether the message is safe to show to clients.
func (e Error) Exposed() bool {
	return e.Expose
}

// Unwrap returns the underlying cause.
func (e Error) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy of the error with a custom message.
func (e Error) WithMessage(message string) Error {
	e.Message = message
	return e
}

// WithDetails returns a copy of the error with additional details.
func (e Error) WithDetails(details map[string]any) Error {
	e.Details = details
	return e
}

// WithErr returns a copy of the error wrapping cause.
func (e Error) WithErr(cause error) Error {
	e.Err = cause
	return e
}

// newError builds an Error for status; client errors are exposed by default.
func newError(status int, code string) Error {
	return Error{
		Status:  status,
		Code:    code,
		Message: http.StatusText(status),
		Expose:  status < http.StatusInternalServerError,
	}
}

// Predefined HTTP errors using http.StatusText for default messages.
var (
	ErrBadRequest            = newError(http.StatusBadRequest, "BAD_REQUEST")
	ErrUnauthorized          = newError(http.StatusUnauthorized, "UNAUTHORIZED")
	ErrForbidden             = newError(http.StatusForbidden, "FORBIDDEN")
	ErrNotFound              = newError(http.StatusNotFound, "NOT_FOUND")
	ErrMethodNotAllowed      = newError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
	ErrConflict              = newError(http.StatusConflict, "CONFLICT")
	ErrRequestEntityTooLarge = newError(http.StatusRequestEntityTooLarge, "REQUEST_ENTITY_TOO_LARGE")
	ErrUnprocessableEntity   = newError(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY")
	ErrTooManyRequests       = newError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS")
	ErrInternalServerError   = newError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR")
	ErrNotImplemented        = newError(http.StatusNotImplemented, "NOT_IMPLEMENTED")
	ErrServiceUnavailable    = newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
)

// RouteNotFound builds the error reported when no route matches method and path.
func RouteNotFound(method, path string) Error {
	return ErrNotFound.WithMessage(fmt.Sprintf("Route not found for %s %s", method, path))
}

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// exposer is implemented by errors that may be shown to clients.
type exposer interface {
	Exposed() bool
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code > 0 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// IsExposed reports whether err's message may be written to clients.
func IsExposed(err error) bool {
	var ex exposer
	if errors.As(err, &ex) {
		return ex.Exposed()
	}
	return false
}

// PanicError allows error handlers to detect recovered panics.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

// NewPanicError wraps a recovered panic value with its stack trace.
func NewPanicError(value any, stack []byte) error {
	return &panicError{value: value, stack: stack}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

// ToError converts any thrown value to an error.
func ToError(v any) error {
	switch e := v.(type) {
	case nil:
		return nil
	case error:
		return e
	case string:
		return errors.New(e)
	default:
		return fmt.Errorf("non-error thrown: %v", e)
	}
}
