package orm

import (
	"errors"
	"fmt"

	"github.com/roach88/uniorm/internal/column"
)

// ErrorCode categorizes record engine errors.
type ErrorCode string

const (
	// CodeSchema indicates an invalid schema declaration.
	CodeSchema ErrorCode = "SCHEMA_ERROR"

	// CodeInvalidArgument indicates a caller error such as an empty filter,
	// an ambiguous lookup or a missing primary key.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeNotFound indicates a foreign key whose target row is missing.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeValidation indicates a value rejected by a column.
	CodeValidation ErrorCode = "VALIDATION_ERROR"
)

// Error is returned by DB, Schema and Record operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the failing operation, e.g. "create" or "resolve".
	Op string

	// Table names the schema involved, if any.
	Table string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Table != "" {
		msg += " " + e.Table
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func schemaErr(table, format string, args ...any) *Error {
	return &Error{Code: CodeSchema, Op: "register", Table: table, Message: fmt.Sprintf(format, args...)}
}

func valueErr(op, table, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Op: op, Table: table, Message: fmt.Sprintf(format, args...)}
}

func validationErr(op, table string, err error) *Error {
	return &Error{Code: CodeValidation, Op: op, Table: table, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsSchemaError reports whether err is an invalid schema declaration.
// Uses errors.As to handle wrapped errors.
func IsSchemaError(err error) bool { return hasCode(err, CodeSchema) }

// IsValueError reports whether err is a caller error.
func IsValueError(err error) bool { return hasCode(err, CodeInvalidArgument) }

// IsNotFound reports whether err is a missing foreign key target.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsValidationError reports whether err is a rejected column value,
// including a bare *column.ValidationError.
func IsValidationError(err error) bool {
	if hasCode(err, CodeValidation) {
		return true
	}
	var ve *column.ValidationError
	return errors.As(err, &ve)
}
