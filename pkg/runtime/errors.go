// Package runtime provides the database handle and the error taxonomy
// shared by every layer that talks to PostgreSQL.
package runtime

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is matched by every UniqueConstraintViolation.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrForeignKeyViolation is matched by every ReferentialIntegrityViolation.
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// PostgreSQL SQLSTATE codes translated into typed errors.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeNotNullViolation    = "23502"
	CodeInvalidTextRep      = "22P02"
	CodeNumericOutOfRange   = "22003"
)

// UniqueConstraintViolation is returned when an insert or update collides
// with a UNIQUE or PRIMARY KEY constraint.
type UniqueConstraintViolation struct {
	Table      string
	Constraint string
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *UniqueConstraintViolation) Error() string {
	return fmt.Sprintf("unique constraint %s violated on %s: %s", e.Constraint, e.Table, e.Detail)
}

// Unwrap returns the underlying driver error.
func (e *UniqueConstraintViolation) Unwrap() error { return e.Err }

// Is matches ErrDuplicateKey.
func (e *UniqueConstraintViolation) Is(target error) bool { return target == ErrDuplicateKey }

// ReferentialIntegrityViolation is returned when a row references a missing
// parent, or a delete leaves referencing rows behind.
type ReferentialIntegrityViolation struct {
	Table      string
	Constraint string
	Detail     string
	Err        error
}

// Error implements the error interface.
func (e *ReferentialIntegrityViolation) Error() string {
	return fmt.Sprintf("foreign key %s violated on %s: %s", e.Constraint, e.Table, e.Detail)
}

// Unwrap returns the underlying driver error.
func (e *ReferentialIntegrityViolation) Unwrap() error { return e.Err }

// Is matches ErrForeignKeyViolation.
func (e *ReferentialIntegrityViolation) Is(target error) bool {
	return target == ErrForeignKeyViolation
}

// ValidationError represents a validation error, raised either by model
// validation before a write or by the database (CHECK, NOT NULL, bad enum
// literal).
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ValidationError) Unwrap() error { return e.Err }

// QueryError represents a query execution error.
type QueryError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// MigrationError represents a migration error.
type MigrationError struct {
	Version string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration error (version %s): %s: %v", e.Version, e.Message, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// TranslateError maps driver errors onto the typed errors of this package.
// Errors it does not recognise are returned unchanged; nil stays nil.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case CodeUniqueViolation:
		return &UniqueConstraintViolation{
			Table:      pgErr.TableName,
			Constraint: pgErr.ConstraintName,
			Detail:     pgErr.Detail,
			Err:        err,
		}
	case CodeForeignKeyViolation:
		return &ReferentialIntegrityViolation{
			Table:      pgErr.TableName,
			Constraint: pgErr.ConstraintName,
			Detail:     pgErr.Detail,
			Err:        err,
		}
	case CodeCheckViolation:
		return &ValidationError{Field: pgErr.ConstraintName, Message: pgErr.Message, Err: err}
	case CodeNotNullViolation:
		return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message, Err: err}
	case CodeInvalidTextRep, CodeNumericOutOfRange:
		return &ValidationError{Field: pgErr.ColumnName, Message: pgErr.Message, Err: err}
	}
	return err
}
