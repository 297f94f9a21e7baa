package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Sentinel errors returned by repositories. Services translate them with
// apperrors.TranslateRepoError.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrDataTooLong  = errors.New("data too long for column")
	// ErrLockContention covers lock wait timeouts and deadlocks; the
	// statement may succeed when retried.
	ErrLockContention = errors.New("lock contention")
)

// mysqlErrors maps MySQL server error numbers to sentinels.
var mysqlErrors = map[uint16]error{
	1062: ErrDuplicateKey,   // ER_DUP_ENTRY
	1406: ErrDataTooLong,    // ER_DATA_TOO_LONG
	1205: ErrLockContention, // ER_LOCK_WAIT_TIMEOUT
	1213: ErrLockContention, // ER_LOCK_DEADLOCK
}

// mysqlMessages catches driver errors that arrive without a *mysql.MySQLError
// in the chain.
var mysqlMessages = []struct {
	fragment string
	sentinel error
}{
	{"Duplicate entry", ErrDuplicateKey},
	{"Data too long", ErrDataTooLong},
	{"Deadlock found", ErrLockContention},
	{"Lock wait timeout", ErrLockContention},
}

// ParseDBError wraps err with the matching sentinel, keeping the driver
// message. Unrecognised errors are returned unchanged.
func ParseDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if sentinel, ok := mysqlErrors[mysqlErr.Number]; ok {
			return fmt.Errorf("%w: %v", sentinel, err)
		}
		return err
	}

	msg := err.Error()
	for _, m := range mysqlMessages {
		if strings.Contains(msg, m.fragment) {
			return fmt.Errorf("%w: %v", m.sentinel, err)
		}
	}
	return err
}
