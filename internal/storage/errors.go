package storage

import (
	"errors"
	"fmt"
)

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotFound is returned when a reference doesn't resolve to an object.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidRef is returned when a photo reference is invalid or contains
	// forbidden characters (e.g., path traversal attempts like "../").
	ErrInvalidRef = errors.New("invalid photo reference")

	// ErrAccessDenied is returned when the storage provider denies access
	// to an object (insufficient permissions, ACL restrictions, etc.).
	ErrAccessDenied = errors.New("access denied")
)

// =============================================================================
// Structured Error Type
// =============================================================================

// StorageError wraps storage operation errors with additional context.
// It implements the error interface and supports errors.Unwrap for sentinel
// error checking with errors.Is().
type StorageError struct {
	// Op is the operation that failed (e.g., "Exists", "URL", "Delete").
	Op string

	// Ref is the photo reference involved in the operation.
	Ref string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Helper Functions
// =============================================================================

// IsNotFound returns true if the error indicates an object was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidRef returns true if the error indicates an invalid reference.
func IsInvalidRef(err error) bool {
	return errors.Is(err, ErrInvalidRef)
}

// IsAccessDenied returns true if the error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
