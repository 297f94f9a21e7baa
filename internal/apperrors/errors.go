// Package apperrors provides typed error handling for the Halyard API.
// It uses struct-based errors with separate user-safe and internal messages.
package apperrors

import "fmt"

// Code categorizes errors for consistent handling across the application.
type Code int

// Error codes for categorizing application errors.
const (
	// CodeUnknown indicates an unspecified error type
	CodeUnknown Code = iota
	// CodeNotFound indicates a requested resource does not exist
	CodeNotFound
	// CodeDuplicate indicates a unique constraint violation
	CodeDuplicate
	// CodeInvalidInput indicates malformed or invalid input
	CodeInvalidInput
	// CodeValidation indicates input failed validation rules
	CodeValidation
	// CodeDatabase indicates a database operation failure
	CodeDatabase
	// CodeUnauthorized indicates authentication is required or failed
	CodeUnauthorized
	// CodeForbidden indicates the caller may not perform the operation
	CodeForbidden
	// CodeRateLimited indicates the caller sent too many requests
	CodeRateLimited
	// CodeUpstream indicates the identity or email provider failed
	CodeUpstream
	// CodeUnavailable indicates a feature is switched off by configuration
	CodeUnavailable
)

// FieldIssue is a single per-field problem carried by an Error.
type FieldIssue struct {
	Field   string
	Message string
}

// Error represents a domain error with separate user-safe and internal messages.
// The Message field is always safe to expose to clients.
// The Internal field contains debugging details and should only be logged.
type Error struct {
	Code     Code         // Error category for handler mapping
	Message  string       // User-safe message (always exposable)
	Internal string       // Internal details (for logging only)
	Field    string       // Optional: which field caused the error
	Issues   []FieldIssue // Optional: every field or check that failed
	Err      error        // Wrapped underlying error
}

// Error implements the error interface.
// Returns the user-safe message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithInternal adds internal debugging details to the error.
func (e *Error) WithInternal(format string, args ...any) *Error {
	e.Internal = fmt.Sprintf(format, args...)
	return e
}

// WithField adds field information to the error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithIssue appends a per-field problem.
func (e *Error) WithIssue(field, message string) *Error {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Message: message})
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeNotFound:
		return "not_found"
	case CodeDuplicate:
		return "duplicate"
	case CodeInvalidInput:
		return "invalid_input"
	case CodeValidation:
		return "validation"
	case CodeDatabase:
		return "database"
	case CodeUnauthorized:
		return "unauthorized"
	case CodeForbidden:
		return "forbidden"
	case CodeRateLimited:
		return "rate_limited"
	case CodeUpstream:
		return "upstream"
	case CodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("unknown_code_%d", c)
	}
}

// Is reports whether target matches this error's code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors for errors.Is checks against a code. Never mutate these.
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "resource not found"}
	ErrDuplicate     = &Error{Code: CodeDuplicate, Message: "resource already exists"}
	ErrDataTooLong   = &Error{Code: CodeInvalidInput, Message: "value too long"}
	ErrDatabaseError = &Error{Code: CodeDatabase, Message: "database error"}
	ErrBusy          = &Error{Code: CodeUnavailable, Message: "resource busy, try again"}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Message: "authentication required"}
	ErrForbidden     = &Error{Code: CodeForbidden, Message: "forbidden"}
)

// NotFound creates a new not found error with the given message.
func NotFound(message string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: message,
	}
}

// Duplicate creates a new duplicate error with the given message.
func Duplicate(message string) *Error {
	return &Error{
		Code:    CodeDuplicate,
		Message: message,
	}
}

// Database creates a new database error with the given message.
func Database(message string) *Error {
	return &Error{
		Code:    CodeDatabase,
		Message: message,
	}
}

// InvalidInput creates a new invalid input error with the given message.
func InvalidInput(message string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// InvalidField creates an invalid input error for a single field.
func InvalidField(field, message string) *Error {
	return &Error{
		Code:    CodeInvalidInput,
		Message: message,
		Field:   field,
		Issues:  []FieldIssue{{Field: field, Message: message}},
	}
}

// Validation creates a validation error; attach failures with WithIssue.
func Validation(message string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
	}
}

// Unauthorized creates a new authentication error.
func Unauthorized(message string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// Forbidden creates a new permission error.
func Forbidden(message string) *Error {
	return &Error{
		Code:    CodeForbidden,
		Message: message,
	}
}

// RateLimited creates a new throttling error.
func RateLimited(message string) *Error {
	return &Error{
		Code:    CodeRateLimited,
		Message: message,
	}
}

// Upstream creates an error for a failing external provider.
func Upstream(message string) *Error {
	return &Error{
		Code:    CodeUpstream,
		Message: message,
	}
}

// Unavailable creates an error for a feature disabled by configuration.
func Unavailable(message string) *Error {
	return &Error{
		Code:    CodeUnavailable,
		Message: message,
	}
}
