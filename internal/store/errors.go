package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when no template is stored under a name.
	ErrNotFound = errors.New("template not found")

	// ErrInvalidName is returned for names that cannot identify a stored template.
	ErrInvalidName = errors.New("invalid template name")

	// ErrInvalidData is returned when a record cannot be serialized or decoded.
	ErrInvalidData = errors.New("invalid data format")

	// ErrConnectionFailed is returned when the database cannot be opened.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when the schema migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrUnknownDriver is returned by Open for an unsupported backend.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// StoreError wraps errors with the operation and template they concern.
type StoreError struct {
	Op      string // Operation that failed (e.g., "Save")
	Name    string // Template name if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q: %s", e.Op, e.Name, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, name, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Name:    name,
		Message: message,
		Err:     err,
	}
}
