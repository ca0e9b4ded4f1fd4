// Package apperr defines the typed domain errors shared by services and
// handlers. Every rejected precondition is reported through one of these
// types so that a single translator can map it to an HTTP response.
package apperr

import "fmt"

// ValidationError reports malformed, missing or out-of-range input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports that a referenced entity does not exist (or is not
// visible, such as an inactive listing).
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }

// ConflictError reports a business-rule violation such as an overlapping
// reservation or a duplicate review. ConflictingID optionally names the
// record that caused the conflict and is only used for diagnostics.
type ConflictError struct {
	Reason        string
	ConflictingID uint64
}

func (e *ConflictError) Error() string { return e.Reason }

// AuthorizationError reports that the caller lacks the role or ownership
// needed for the operation.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string { return e.Reason }

// UnauthenticatedError reports missing or invalid credentials.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string { return e.Reason }

func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &NotFoundError{Reason: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

func Unauthenticated(format string, args ...any) error {
	return &UnauthenticatedError{Reason: fmt.Sprintf(format, args...)}
}
