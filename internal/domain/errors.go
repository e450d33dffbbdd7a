package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Validation failure (missing note, photo, item, bad money value)
	EUNAUTHORIZED = "unauthorized" // Missing or invalid credentials
	EFORBIDDEN    = "forbidden"    // Actor's role is not allowed to perform the action
	EILLEGAL      = "illegal"      // Action is not valid for the report's current status
	ELOCKED       = "locked"       // Checklist edit attempted outside an editable status
	ECONFLICT     = "conflict"     // Stale version on save (concurrent modification)
	ENOTFOUND     = "not_found"    // Resource not found
	EINTERNAL     = "internal"     // Internal error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "report.transition")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// Internal details stay out of client-facing messages
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates a role-authorization error. The message names only the
// action and role, never the unmet preconditions.
func Unauthorized(op string, action Action, role Role) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: fmt.Sprintf("role %s is not allowed to perform %s", role, action),
	}
}

// IllegalTransition creates an error for an action that is not valid in the
// report's current status. The message names the status, action, and role so
// the caller can render a precise error.
func IllegalTransition(op string, status ReportStatus, action Action, role Role) *Error {
	return &Error{
		Code:    EILLEGAL,
		Op:      op,
		Message: fmt.Sprintf("action %s is not valid for status %s (role %s)", action, status, role),
	}
}

// Locked creates an error for a checklist edit outside an editable status.
func Locked(op string, status ReportStatus) *Error {
	return &Error{
		Code:    ELOCKED,
		Op:      op,
		Message: fmt.Sprintf("report is locked for editing in status %s", status),
	}
}

// Conflict creates a concurrent modification error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
