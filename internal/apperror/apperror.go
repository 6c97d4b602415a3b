// Package apperror defines the error kinds the client distinguishes.
//
// Every failed call to the remote API collapses into ErrRequest, whatever the
// status code. The other kinds are raised locally, before any request is made:
// form validation, ownership checks, missing session, missing local records.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrRequest         = errors.New("request failed")
	ErrValidation      = errors.New("Validation Error")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("not signed in")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
	Status  int    // Optional: HTTP status of a failed request, 0 on transport errors
	Cause   error  // Optional: underlying transport or decode error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// RequestFailed reports a failed API call. op names the operation the way the
// user would describe it ("create post"); status is 0 when no response arrived.
func RequestFailed(op string, status int, cause error) *AppError {
	msg := fmt.Sprintf("failed to %s", op)
	if status != 0 {
		msg = fmt.Sprintf("failed to %s (status %d)", op, status)
	}
	return &AppError{
		Err:     ErrRequest,
		Message: msg,
		Status:  status,
		Cause:   cause,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError for an action the current user may not take,
// such as deleting someone else's comment.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func Unauthenticated() *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "please sign in first",
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}
