package database

import "errors"

// Domain-specific errors for database operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrClosed is returned for operations on a wrapper that has been closed.
	ErrClosed = errors.New("database: wrapper is closed")

	// ErrEmptyStatement is returned when a query or statement is empty.
	ErrEmptyStatement = errors.New("database: statement is empty")

	// ErrNilParser is returned when a read is attempted without a row parser.
	ErrNilParser = errors.New("database: row parser is nil")

	// ErrNilValidator is returned when a mutation is attempted without a validator.
	ErrNilValidator = errors.New("database: result validator is nil")

	// ErrValidatorPanic is returned when a validator panics. The mutation is rolled back.
	ErrValidatorPanic = errors.New("database: result validator panicked")

	// ErrColumnOutOfRange is returned when a column index is outside the row.
	ErrColumnOutOfRange = errors.New("database: column index out of range")

	// ErrIncompatibleType is returned when a column cannot be converted to the requested type.
	ErrIncompatibleType = errors.New("database: incompatible column type")

	// ErrNullColumn is returned when a NULL column is read into a non-nillable type.
	ErrNullColumn = errors.New("database: column is NULL")

	// ErrScriptNotFound is returned when an embedded script resource does not exist.
	ErrScriptNotFound = errors.New("database: script not found")
)
