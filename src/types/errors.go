package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	ErrNotFound            ErrorKind = "not_found"
	ErrCapacityExceeded    ErrorKind = "capacity_exceeded"
	ErrIneligibleState     ErrorKind = "ineligible_state"
	ErrConcurrencyConflict ErrorKind = "concurrency_conflict"
	ErrExternalGateway     ErrorKind = "external_gateway"
)

// AppError is the single error type that crosses from src/utils back to the
// handlers. Handlers map the kind to an HTTP status; everything else is
// surfaced as a plain 400.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func HTTPStatusForError(err error) int {
	switch KindOf(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrCapacityExceeded:
		return http.StatusConflict
	case ErrIneligibleState:
		return http.StatusUnprocessableEntity
	case ErrConcurrencyConflict:
		return http.StatusConflict
	case ErrExternalGateway:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
