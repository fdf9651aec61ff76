// Package numerator provides domain contracts for sequential document numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"fmt"

	"facturador/internal/core/id"
)

// DocumentKind selects which of the issuer's two counters is advanced.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindQuote   DocumentKind = "quote"
)

// QuoteSeries is the fixed series label for quotes. Quotes never use the
// issuer's invoice series.
const QuoteSeries = "P"

// SequencePadWidth is the zero-padding width of the sequence part of a
// full number, e.g. A-2025-0007.
const SequencePadWidth = 4

// Assignment is the result of advancing an issuer's counter exactly once.
type Assignment struct {
	// Sequence is the newly assigned counter value (gapless, strictly increasing
	// per issuer and kind).
	Sequence int64

	// Series is the label the sequence belongs to: the issuer's active invoice
	// series, or QuoteSeries for quotes. Read at assignment time.
	Series string

	// FullNumber is the derived human-readable number,
	// "{series}-{year}-{sequence zero-padded to 4 digits}".
	FullNumber string
}

// Authority assigns sequential document numbers.
// This is the domain contract - the PostgreSQL implementation lives in the
// infrastructure layer.
//
// AssignNext must be called on the connection of an ambient read-write
// transaction: the counter increment commits or rolls back together with the
// document transition it numbers. No two concurrent calls for the same issuer
// and kind may observe the same pre-increment value.
type Authority interface {
	// AssignNext reads the issuer's counter for kind, increments it by exactly
	// one, writes it back and returns the new sequence together with the
	// series label current at this moment.
	//
	// Fails with apperror CodeNotFound if the issuer no longer exists, and
	// with CodeConcurrentModification if the surrounding transaction was
	// aborted by a conflicting writer (transient, retry the whole operation).
	AssignNext(ctx context.Context, issuerID id.ID, kind DocumentKind, issueYear int) (Assignment, error)
}

// FormatFullNumber derives the immutable human-readable number from its parts.
func FormatFullNumber(series string, year int, sequence int64) string {
	return fmt.Sprintf("%s-%04d-%0*d", series, year, SequencePadWidth, sequence)
}
