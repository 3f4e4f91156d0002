package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an application error
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrConflict
	ErrInvalidTransition
	ErrReportRequired
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so callers can use errors.Is with sentinels.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// CodeOf returns the ErrorCode of err, or ErrInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// Validation reports malformed input before any state is touched.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// SchedulingConflict carries the blocking appointment's window so the
// caller can render "Dr. X has another appointment from T1 to T2".
func SchedulingConflict(blockingID, doctorName, start, end string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: fmt.Sprintf("%s has another appointment from %s to %s", doctorName, start, end),
		Details: map[string]interface{}{
			"blocking_appointment_id": blockingID,
			"starts_at":               start,
			"ends_at":                 end,
		},
	}
}

// InvalidTransition reports a status change that is not legal from the
// appointment's current state. Never silently ignored.
func InvalidTransition(from, action string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot %s an appointment in status %q", action, from),
		Details: map[string]interface{}{
			"status": from,
			"action": action,
		},
	}
}

// ReportRequired is surfaced distinctly from InvalidTransition so the UI
// can prompt for report creation instead of a generic failure.
func ReportRequired(appointmentID string) *AppError {
	return &AppError{
		Code:    ErrReportRequired,
		Message: "a clinical report must be created before closing this appointment",
		Details: map[string]interface{}{"appointment_id": appointmentID},
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// Forbidden reports an action the requester is not allowed to take on a
// resource they can otherwise see.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}
