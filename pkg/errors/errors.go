package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. The wrapped
// cause is never serialised.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches two typed errors by code so cloned errors still compare equal
// to their predefined template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Internal wraps an infrastructure failure behind a generic message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Taxonomy shared by every module.
var (
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Inventory and attendance.
var (
	ErrLotNotFound             = New("LOT_NOT_FOUND", http.StatusNotFound, "vaccine lot not found")
	ErrLotDepleted             = New("LOT_DEPLETED", http.StatusConflict, "vaccine lot has no remaining doses")
	ErrLotExpired              = New("LOT_EXPIRED", http.StatusConflict, "vaccine lot is expired")
	ErrLotMismatch             = New("LOT_MISMATCH", http.StatusConflict, "vaccine lot does not match the appointment")
	ErrPersonnelNotFound       = New("PERSONNEL_NOT_FOUND", http.StatusNotFound, "medical personnel not found")
	ErrAppointmentNotFound     = New("APPOINTMENT_NOT_FOUND", http.StatusNotFound, "appointment not found")
	ErrAppointmentNotConfirmed = New("APPOINTMENT_NOT_CONFIRMED", http.StatusConflict, "appointment is not confirmed")
)

// Children and linking.
var (
	ErrChildNotFound    = New("CHILD_NOT_FOUND", http.StatusNotFound, "child not found")
	ErrChildHasHistory  = New("CHILD_HAS_HISTORY", http.StatusConflict, "child has vaccination history")
	ErrTutorNotFound    = New("TUTOR_NOT_FOUND", http.StatusBadRequest, "user is not registered as a tutor")
	ErrInvalidCode      = New("INVALID_CODE", http.StatusBadRequest, "activation code is not valid")
	ErrAlreadyLinked    = New("ALREADY_LINKED", http.StatusBadRequest, "tutor is already linked to this child")
	ErrDuplicatePending = New("DUPLICATE_PENDING", http.StatusBadRequest, "a pending link request already exists")
	ErrRequestNotFound  = New("REQUEST_NOT_FOUND", http.StatusNotFound, "link request not found")
	ErrAlreadyResolved  = New("ALREADY_RESOLVED", http.StatusConflict, "link request already resolved")
	ErrInvalidAction    = New("INVALID_ACTION", http.StatusBadRequest, `invalid action, use "Aceptar" or "Rechazar"`)
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
