package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrSerialization marks a transaction that lost a race with a
	// concurrent commit. It is always safe to run the body again.
	ErrSerialization = errors.New("concurrent modification")

	// ErrRetriesExhausted is returned once every attempt of a transaction
	// was aborted by a concurrent modification.
	ErrRetriesExhausted = errors.New("transaction retries exhausted")
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsRetryable reports whether err came from a transaction aborted by a
// concurrent writer rather than from the transaction body itself.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSerialization) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return false
}
