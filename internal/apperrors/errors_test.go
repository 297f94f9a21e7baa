package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halyard-group/halyard-web/internal/repository"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("load inquiry: %w", NotFound("Inquiry not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDuplicate)

	var appErr *Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Inquiry not found", appErr.Message)
}

func TestErrorBuilders(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream("Email provider unavailable").
		WithInternal("mailgun: %v", cause).
		Wrap(cause)

	assert.Equal(t, CodeUpstream, err.Code)
	assert.Equal(t, "Email provider unavailable", err.Error())
	assert.Equal(t, "mailgun: connection reset", err.Internal)
	assert.ErrorIs(t, err, cause)

	v := Validation("Origin rejected").WithIssue("protocol", "expected https").WithIssue("hostname", "unknown host")
	assert.Len(t, v.Issues, 2)
	assert.Equal(t, "hostname", v.Issues[1].Field)

	f := InvalidField("email", "Email must be valid")
	assert.Equal(t, "email", f.Field)
	assert.Equal(t, []FieldIssue{{Field: "email", Message: "Email must be valid"}}, f.Issues)
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "rate_limited", CodeRateLimited.String())
	assert.Equal(t, "forbidden", CodeForbidden.String())
	assert.Equal(t, "unknown_code_99", Code(99).String())
}

func TestTranslateRepoError(t *testing.T) {
	assert.NoError(t, TranslateRepoError("op", nil))

	tests := []struct {
		name string
		in   error
		want *Error
	}{
		{"not found", repository.ErrNotFound, ErrNotFound},
		{"duplicate", fmt.Errorf("%w: Duplicate entry", repository.ErrDuplicateKey), ErrDuplicate},
		{"too long", repository.ErrDataTooLong, ErrDataTooLong},
		{"lock contention", fmt.Errorf("%w: Deadlock found", repository.ErrLockContention), ErrBusy},
		{"other", errors.New("boom"), ErrDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateRepoError("get inquiry", tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "get inquiry: ")
		})
	}
}
