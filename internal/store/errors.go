package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store errors so the transport layer can map them to
// status codes without string matching.
type ErrorCode string

const (
	// CodeNotFound indicates the target row does not exist (zero rows affected).
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeConstraintViolation indicates a foreign-key or uniqueness failure
	// reported by the engine.
	CodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"

	// CodeValidationFailed indicates the input violates a cross-field
	// invariant (date ordering, negative cost, empty entry list).
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
)

// Error is the structured error returned by store operations.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NOT_FOUND store error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeNotFound
}

// IsConstraintViolation reports whether err is a CONSTRAINT_VIOLATION store error.
func IsConstraintViolation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeConstraintViolation
}

// IsValidation reports whether err is a VALIDATION_FAILED store error.
func IsValidation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeValidationFailed
}

// NewNotFound creates a NOT_FOUND error for an entity/id pair.
func NewNotFound(entity Entity, id int64) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s id %d not found", entity, id),
	}
}

// NewValidation creates a VALIDATION_FAILED error with the given message.
func NewValidation(format string, args ...any) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

// mapSQLiteError converts constraint failures from the driver into
// structured CONSTRAINT_VIOLATION errors. Other errors pass through.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return &Error{
			Code:    CodeConstraintViolation,
			Message: "constraint violated",
			Err:     err,
		}
	}
	return err
}

// MigrationError wraps a failed migration step. It is fatal to startup:
// the process must not serve with a partially-migrated schema.
type MigrationError struct {
	Name string
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s failed: %v", e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
