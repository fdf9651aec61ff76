package documents

import (
	"context"
	"time"

	"facturador/internal/core/apperror"
	"facturador/internal/core/entity"
	"facturador/internal/core/id"
	"facturador/internal/core/numerator"
	"facturador/internal/core/types"
)

// Document is the shared shape of invoices and quotes.
//
// Sequence, series and full number are nil while the document is a draft.
// They are populated exactly once, by the numbering authority, at the moment
// the document leaves the draft state, and are immutable from then on. Drafts
// never get a synthesized placeholder number; consumers must check the state
// instead.
type Document struct {
	entity.BaseDocument

	Status Status `db:"status" json:"status"`

	SequenceNumber *int64  `db:"sequence_number" json:"sequenceNumber,omitempty"`
	Series         *string `db:"series" json:"series,omitempty"`
	FullNumber     *string `db:"full_number" json:"fullNumber,omitempty"`

	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	TaxableBase types.Money `db:"taxable_base" json:"taxableBase"`
	TaxTotal    types.Money `db:"tax_total" json:"taxTotal"`
	GrandTotal  types.Money `db:"grand_total" json:"grandTotal"`

	Notes string `db:"notes" json:"notes,omitempty"`

	IssuerID id.ID `db:"issuer_id" json:"issuerId"`
	ClientID id.ID `db:"client_id" json:"clientId"`

	// Lines is the ordered table part, loaded and saved separately.
	Lines []Line `db:"-" json:"lines"`
}

// NewDocument creates a draft document for the given parties.
func NewDocument(issuerID, clientID id.ID, issueDate time.Time) Document {
	return Document{
		BaseDocument: entity.NewBaseDocument(),
		Status:       StatusDraft,
		IssueDate:    issueDate,
		IssuerID:     issuerID,
		ClientID:     clientID,
		Lines:        make([]Line, 0),
	}
}

// IsDraft reports whether the document is still an editable draft.
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// IsNumbered reports whether the document already carries its number.
func (d *Document) IsNumbered() bool {
	return d.FullNumber != nil
}

// CanModify checks that the document is still editable. Numbered documents
// are append-only.
func (d *Document) CanModify() error {
	if !d.IsDraft() {
		return apperror.NewInvalidState("only drafts can be modified").
			WithDetail("document_id", d.ID.String()).
			WithDetail("status", string(d.Status))
	}
	return nil
}

// ApplyLines replaces the line table wholesale and recomputes the totals so
// that the persisted amounts never disagree with the document's own lines.
func (d *Document) ApplyLines(lines []Line) error {
	clean, err := SanitizeLines(lines)
	if err != nil {
		return err
	}
	d.Lines = clean

	totals := ComputeTotals(clean)
	d.TaxableBase = totals.TaxableBase
	d.TaxTotal = totals.TaxTotal
	d.GrandTotal = totals.GrandTotal
	return nil
}

// AssignNumber freezes the assignment produced by the numbering authority.
// A document is numbered at most once; a second call is a state error.
func (d *Document) AssignNumber(a numerator.Assignment) error {
	if d.IsNumbered() {
		return apperror.NewInvalidState("document is already numbered").
			WithDetail("document_id", d.ID.String()).
			WithDetail("full_number", *d.FullNumber)
	}
	seq := a.Sequence
	series := a.Series
	full := a.FullNumber
	d.SequenceNumber = &seq
	d.Series = &series
	d.FullNumber = &full
	return nil
}

// Validate implements entity.Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.IssuerID) {
		return apperror.NewValidation("issuer is required").
			WithDetail("field", "issuerId")
	}
	if id.IsNil(d.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}
	if d.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}
	return nil
}
