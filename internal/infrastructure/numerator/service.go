// Package numerator implements the numbering authority on PostgreSQL.
package numerator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/core/numerator"
	"facturador/internal/infrastructure/storage/postgres"
	"facturador/pkg/logger"
)

// Compile-time check that Service implements the domain contract.
var _ numerator.Authority = (*Service)(nil)

// QuerierSource yields the connection a statement must run on, the ambient
// transaction's if one is open. Satisfied by *postgres.TxManager.
type QuerierSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

// Service advances the issuer's counters with a single
// UPDATE ... RETURNING on the ambient transaction's connection. The row lock
// serializes concurrent assignments for the same issuer, and the increment
// commits or rolls back together with the document transition it numbers.
type Service struct {
	db QuerierSource
}

// NewService creates a new numbering authority.
func NewService(db QuerierSource) *Service {
	return &Service{db: db}
}

// AssignNext implements numerator.Authority.
func (s *Service) AssignNext(ctx context.Context, issuerID id.ID, kind numerator.DocumentKind, issueYear int) (numerator.Assignment, error) {
	var (
		sequence int64
		series   string
		sql      string
	)

	// The series label is read in the same statement that advances the
	// counter, so a concurrent series change can never produce a number
	// under a stale label.
	switch kind {
	case numerator.KindInvoice:
		sql = `UPDATE issuers
			SET last_invoice_number = last_invoice_number + 1
			WHERE id = $1
			RETURNING last_invoice_number, current_series`
	case numerator.KindQuote:
		sql = `UPDATE issuers
			SET last_quote_number = last_quote_number + 1
			WHERE id = $1
			RETURNING last_quote_number, '` + numerator.QuoteSeries + `'`
	default:
		return numerator.Assignment{}, apperror.NewValidation("unknown document kind").
			WithDetail("kind", string(kind))
	}

	err := s.db.GetQuerier(ctx).QueryRow(ctx, sql, issuerID).Scan(&sequence, &series)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return numerator.Assignment{}, apperror.NewNotFound("issuer", issuerID.String())
		}
		return numerator.Assignment{}, postgres.TranslateError(fmt.Errorf("assign next number: %w", err))
	}

	assignment := numerator.Assignment{
		Sequence:   sequence,
		Series:     series,
		FullNumber: numerator.FormatFullNumber(series, issueYear, sequence),
	}

	logger.Debug(ctx, "number assigned",
		"issuer_id", issuerID,
		"kind", string(kind),
		"full_number", assignment.FullNumber)
	return assignment, nil
}
