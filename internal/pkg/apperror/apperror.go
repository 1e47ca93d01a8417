package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its message.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindPastDate          Kind = "past_date"
	KindConflict          Kind = "slot_conflict"
	KindPolicyViolation   Kind = "policy_violation"
	KindInvalidTransition Kind = "invalid_transition"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int               // HTTP Status Code (e.g., 400, 404)
	Kind    Kind              // Machine-readable category
	Message string            // User-facing error message
	Details map[string]string // Field-level detail, mostly for validation errors
	Err     error             // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind and message so that copies made by WithDetails still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithDetails returns a copy of e carrying field-level details.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func newKind(kind Kind, code int, message string) *AppError {
	return &AppError{Code: code, Kind: kind, Message: message}
}

func Validation(message string) *AppError {
	return newKind(KindValidation, http.StatusBadRequest, message)
}

func PastDate(message string) *AppError {
	return newKind(KindPastDate, http.StatusBadRequest, message)
}

func Conflict(message string) *AppError {
	return newKind(KindConflict, http.StatusConflict, message)
}

func PolicyViolation(message string) *AppError {
	return newKind(KindPolicyViolation, http.StatusUnprocessableEntity, message)
}

func InvalidTransition(message string) *AppError {
	return newKind(KindInvalidTransition, http.StatusUnprocessableEntity, message)
}

func Unauthorized(message string) *AppError {
	return newKind(KindUnauthorized, http.StatusUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newKind(KindForbidden, http.StatusForbidden, message)
}

func NotFound(message string) *AppError {
	return newKind(KindNotFound, http.StatusNotFound, message)
}

// KindOf returns the kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
