package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hirepurchase/ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE codes that mean the transaction lost a race and may be retried
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps driver errors that signal a lost serialization race to
// shared.ErrConcurrencyConflict. Other errors are returned unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
		}
		return err
	}
	// sqlite reports writer contention as a busy/locked database
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, msg)
	}
	return err
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return translateError(err)
}

// duplicate maps a unique-constraint violation to the given domain error
func duplicate(err error, onDuplicate *shared.DomainError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return onDuplicate
	}
	return translateError(err)
}
