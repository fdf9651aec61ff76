package dto

import (
	"time"

	"facturador/internal/core/types"
	"facturador/internal/domain/documents"
)

// --- Lines ---

// LineRequest is a single document position as submitted by the client.
// Half-filled rows (blank description, zero quantity or price) are dropped
// server-side rather than rejected.
type LineRequest struct {
	Description string      `json:"description"`
	Quantity    types.Money `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	TaxRate     types.Money `json:"taxRate"`
}

// ToLine maps the request row to a domain line. IDs, positions and subtotals
// are assigned by the domain when the lines are applied.
func (r LineRequest) ToLine() documents.Line {
	return documents.Line{
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		TaxRate:     r.TaxRate,
	}
}

// ToLines maps a request line slice.
func ToLines(reqs []LineRequest) []documents.Line {
	lines := make([]documents.Line, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, r.ToLine())
	}
	return lines
}

// LineResponse is a stored document position.
type LineResponse struct {
	LineID      string      `json:"lineId"`
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	Quantity    types.Money `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	TaxRate     types.Money `json:"taxRate"`
	Subtotal    types.Money `json:"subtotal"`
}

// FromLine maps a domain line.
func FromLine(l documents.Line) LineResponse {
	return LineResponse{
		LineID:      l.LineID.String(),
		LineNo:      l.LineNo,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		TaxRate:     l.TaxRate,
		Subtotal:    l.Subtotal,
	}
}

// FromLines maps a domain line slice.
func FromLines(lines []documents.Line) []LineResponse {
	out := make([]LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, FromLine(l))
	}
	return out
}

// --- Shared document response ---

// DocumentResponse contains the fields shared by invoices and quotes.
type DocumentResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`

	Status string `json:"status"`

	SequenceNumber *int64  `json:"sequenceNumber,omitempty"`
	Series         *string `json:"series,omitempty"`
	FullNumber     *string `json:"fullNumber,omitempty"`

	IssueDate time.Time `json:"issueDate"`

	TaxableBase types.Money `json:"taxableBase"`
	TaxTotal    types.Money `json:"taxTotal"`
	GrandTotal  types.Money `json:"grandTotal"`

	Notes string `json:"notes,omitempty"`

	IssuerID string `json:"issuerId"`
	ClientID string `json:"clientId"`

	Lines []LineResponse `json:"lines"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDocument maps the shared document part.
func FromDocument(d documents.Document) DocumentResponse {
	return DocumentResponse{
		ID:             d.ID.String(),
		Version:        d.Version,
		Status:         string(d.Status),
		SequenceNumber: d.SequenceNumber,
		Series:         d.Series,
		FullNumber:     d.FullNumber,
		IssueDate:      d.IssueDate,
		TaxableBase:    d.TaxableBase,
		TaxTotal:       d.TaxTotal,
		GrandTotal:     d.GrandTotal,
		Notes:          d.Notes,
		IssuerID:       d.IssuerID.String(),
		ClientID:       d.ClientID.String(),
		Lines:          FromLines(d.Lines),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ChangeStatusRequest moves a document to another lifecycle state.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
