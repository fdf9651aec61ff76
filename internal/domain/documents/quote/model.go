// Package quote provides the quote (presupuesto) document and its lifecycle,
// including conversion into an invoice.
package quote

import (
	"context"
	"time"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain/documents"
)

// DefaultValidityDays is applied when no validity term is given.
const DefaultValidityDays = 30

// Quote is a draft or sent quote. A quote converts to at most one invoice;
// InvoiceID is set exactly once by the conversion and never cleared.
type Quote struct {
	documents.Document

	// ValidUntil is the date the quote expires.
	ValidUntil *time.Time `db:"valid_until" json:"validUntil,omitempty"`

	// InvoiceID back-references the invoice this quote was converted into.
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`
}

// New creates a draft quote valid for the given number of days.
func New(issuerID, clientID id.ID, issueDate time.Time, validityDays int) *Quote {
	if validityDays <= 0 {
		validityDays = DefaultValidityDays
	}
	until := issueDate.AddDate(0, 0, validityDays)
	return &Quote{
		Document:   documents.NewDocument(issuerID, clientID, issueDate),
		ValidUntil: &until,
	}
}

// Kind implements the document kind discriminator.
func (q *Quote) Kind() documents.Kind {
	return documents.KindQuote
}

// IsConverted reports whether the quote already produced an invoice.
func (q *Quote) IsConverted() bool {
	return q.InvoiceID != nil
}

// Validate implements entity.Validatable.
func (q *Quote) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}
	if !documents.ValidStatus(documents.KindQuote, q.Status) {
		return apperror.NewValidation("invalid quote status").
			WithDetail("status", string(q.Status))
	}
	return nil
}
