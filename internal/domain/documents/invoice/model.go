// Package invoice provides the invoice document and its lifecycle.
package invoice

import (
	"context"
	"time"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain/documents"
)

// DefaultPaymentTermDays is applied when no payment term is given.
const DefaultPaymentTermDays = 30

// Invoice is an issued (or draft) invoice.
type Invoice struct {
	documents.Document

	// PaymentTermDays is the agreed payment term; DueDate derives from it.
	PaymentTermDays int        `db:"payment_term_days" json:"paymentTermDays"`
	DueDate         *time.Time `db:"due_date" json:"dueDate,omitempty"`
}

// New creates a draft invoice. The due date derives from the issue date plus
// the payment term.
func New(issuerID, clientID id.ID, issueDate time.Time, paymentTermDays int) *Invoice {
	if paymentTermDays <= 0 {
		paymentTermDays = DefaultPaymentTermDays
	}
	due := issueDate.AddDate(0, 0, paymentTermDays)
	return &Invoice{
		Document:        documents.NewDocument(issuerID, clientID, issueDate),
		PaymentTermDays: paymentTermDays,
		DueDate:         &due,
	}
}

// Kind implements the document kind discriminator.
func (i *Invoice) Kind() documents.Kind {
	return documents.KindInvoice
}

// SetIssueDate moves the issue date and recomputes the due date.
// Only meaningful on drafts; the service guards the state.
func (i *Invoice) SetIssueDate(issueDate time.Time) {
	i.IssueDate = issueDate
	due := issueDate.AddDate(0, 0, i.PaymentTermDays)
	i.DueDate = &due
}

// Validate implements entity.Validatable.
func (i *Invoice) Validate(ctx context.Context) error {
	if err := i.Document.Validate(ctx); err != nil {
		return err
	}
	if !documents.ValidStatus(documents.KindInvoice, i.Status) {
		return apperror.NewValidation("invalid invoice status").
			WithDetail("status", string(i.Status))
	}
	return nil
}
