package numerator

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/core/numerator"
	"facturador/internal/infrastructure/storage/postgres"
)

// fakeRow replays a prepared result into Scan.
type fakeRow struct {
	sequence int64
	series   string
	err      error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.sequence
	*(dest[1].(*string)) = r.series
	return nil
}

// fakeQuerier records the statement and returns the prepared row.
type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	row      fakeRow
}

func (q *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	panic("not used")
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not used")
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL = sql
	q.lastArgs = args
	return q.row
}

func (q *fakeQuerier) GetQuerier(ctx context.Context) postgres.Querier {
	return q
}

func TestAssignNext_Invoice(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{sequence: 7, series: "A"}}
	svc := NewService(q)
	issuerID := id.New()

	a, err := svc.AssignNext(context.Background(), issuerID, numerator.KindInvoice, 2025)
	require.NoError(t, err)

	assert.Equal(t, int64(7), a.Sequence)
	assert.Equal(t, "A", a.Series)
	assert.Equal(t, "A-2025-0007", a.FullNumber)

	assert.Contains(t, q.lastSQL, "last_invoice_number = last_invoice_number + 1")
	assert.Contains(t, q.lastSQL, "RETURNING last_invoice_number, current_series")
	require.Len(t, q.lastArgs, 1)
	assert.Equal(t, issuerID, q.lastArgs[0])
}

func TestAssignNext_QuoteUsesFixedSeries(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{sequence: 12, series: "P"}}
	svc := NewService(q)

	a, err := svc.AssignNext(context.Background(), id.New(), numerator.KindQuote, 2026)
	require.NoError(t, err)

	assert.Equal(t, "P-2026-0012", a.FullNumber)
	assert.Contains(t, q.lastSQL, "last_quote_number = last_quote_number + 1")
	assert.False(t, strings.Contains(q.lastSQL, "current_series"),
		"quote numbering must not read the invoice series")
}

func TestAssignNext_IssuerNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	svc := NewService(q)

	_, err := svc.AssignNext(context.Background(), id.New(), numerator.KindInvoice, 2025)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestAssignNext_SerializationFailure(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "40001"}}}
	svc := NewService(q)

	_, err := svc.AssignNext(context.Background(), id.New(), numerator.KindInvoice, 2025)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestAssignNext_UnknownKind(t *testing.T) {
	svc := NewService(&fakeQuerier{})

	_, err := svc.AssignNext(context.Background(), id.New(), numerator.DocumentKind("receipt"), 2025)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}
