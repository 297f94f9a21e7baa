package apperrors

import (
	"errors"
	"fmt"

	"github.com/halyard-group/halyard-web/internal/repository"
)

// repoErrors lists the repository sentinels with a user-facing equivalent.
var repoErrors = []struct {
	repo error
	app  *Error
}{
	{repository.ErrNotFound, ErrNotFound},
	{repository.ErrDuplicateKey, ErrDuplicate},
	{repository.ErrDataTooLong, ErrDataTooLong},
	{repository.ErrLockContention, ErrBusy},
}

// TranslateRepoError prefixes err with op and wraps the matching application
// error. Anything unrecognised becomes ErrDatabaseError with the cause kept
// in the message for logs. Returns nil if err is nil.
func TranslateRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, m := range repoErrors {
		if errors.Is(err, m.repo) {
			return fmt.Errorf("%s: %w", op, m.app)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ErrDatabaseError, err)
}
