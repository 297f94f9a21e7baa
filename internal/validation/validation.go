// Package validation collects field-level failures and converts them into
// a single apperrors validation error.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/halyard-group/halyard-web/internal/apperrors"
)

// Result accumulates field failures in the order they were found.
// The zero value is ready to use.
type Result struct {
	issues []apperrors.FieldIssue
}

// New returns an empty Result.
func New() *Result {
	return &Result{}
}

// AddError records a failure for field.
func (r *Result) AddError(field, message string) *Result {
	r.issues = append(r.issues, apperrors.FieldIssue{Field: field, Message: message})
	return r
}

// AddErrorf records a formatted failure for field.
func (r *Result) AddErrorf(field, format string, args ...any) *Result {
	return r.AddError(field, fmt.Sprintf(format, args...))
}

// Check records message for field unless ok holds.
func (r *Result) Check(ok bool, field, message string) *Result {
	if !ok {
		r.AddError(field, message)
	}
	return r
}

// Text checks a free-text field against a rune limit. Empty values fail only
// when required.
func (r *Result) Text(field, value string, limit int, required bool) *Result {
	switch n := utf8.RuneCountInString(value); {
	case required && n == 0:
		r.AddErrorf(field, "%s is required", field)
	case n > limit:
		r.AddErrorf(field, "%s cannot exceed %d characters", field, limit)
	}
	return r
}

// Issues returns a copy of the recorded failures.
func (r *Result) Issues() []apperrors.FieldIssue {
	return append([]apperrors.FieldIssue(nil), r.issues...)
}

// ToError returns nil when nothing failed. A single failure becomes an
// invalid-field error; several become one validation error listing each.
func (r *Result) ToError() *apperrors.Error {
	switch len(r.issues) {
	case 0:
		return nil
	case 1:
		return apperrors.InvalidField(r.issues[0].Field, r.issues[0].Message)
	}
	err := apperrors.Validation(fmt.Sprintf("%d fields are invalid", len(r.issues)))
	for _, issue := range r.issues {
		err.WithIssue(issue.Field, issue.Message)
	}
	return err
}
