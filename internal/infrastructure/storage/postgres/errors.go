package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"facturador/internal/core/apperror"
)

// PostgreSQL error codes relevant to the platform.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

// TranslateError maps low-level pgx errors to AppError where a meaningful
// business interpretation exists. AppErrors pass through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.AsAppError(err); ok {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		// Transient: the caller retries the whole operation from scratch.
		return apperror.NewConcurrentModification("document", nil).WithCause(err)
	case pgUniqueViolation:
		return apperror.NewConflict("record violates a uniqueness constraint").WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("record is referenced by other records").WithCause(err)
	}

	return err
}

// IsSerializationFailure reports whether err is a transaction conflict the
// caller should retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}
