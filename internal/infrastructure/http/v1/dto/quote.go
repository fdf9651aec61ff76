package dto

import (
	"time"

	"facturador/internal/core/id"
	"facturador/internal/domain/documents/quote"
)

// CreateQuoteRequest creates a draft quote.
type CreateQuoteRequest struct {
	IssuerID string `json:"issuerId" binding:"required"`
	ClientID string `json:"clientId" binding:"required"`

	IssueDate    *time.Time `json:"issueDate"`
	ValidityDays int        `json:"validityDays"`
	Notes        string     `json:"notes"`

	Lines []LineRequest `json:"lines" binding:"required"`
}

// ToEntity maps the request to a draft quote. Defaults the issue date to
// today.
func (r CreateQuoteRequest) ToEntity(issuerID, clientID id.ID) *quote.Quote {
	issueDate := time.Now().UTC()
	if r.IssueDate != nil {
		issueDate = *r.IssueDate
	}
	q := quote.New(issuerID, clientID, issueDate, r.ValidityDays)
	q.Notes = r.Notes
	return q
}

// UpdateQuoteRequest replaces a draft's content wholesale.
type UpdateQuoteRequest struct {
	IssueDate  *time.Time    `json:"issueDate"`
	ValidUntil *time.Time    `json:"validUntil"`
	Notes      string        `json:"notes"`
	Lines      []LineRequest `json:"lines" binding:"required"`
}

// ToInput maps the request to the service input.
func (r UpdateQuoteRequest) ToInput() quote.EditDraftInput {
	in := quote.EditDraftInput{
		ValidUntil: r.ValidUntil,
		Notes:      r.Notes,
		Lines:      ToLines(r.Lines),
	}
	if r.IssueDate != nil {
		in.IssueDate = *r.IssueDate
	}
	return in
}

// QuoteResponse is a stored quote.
type QuoteResponse struct {
	DocumentResponse

	ValidUntil *time.Time `json:"validUntil,omitempty"`
	InvoiceID  *string    `json:"invoiceId,omitempty"`
}

// FromQuote maps a domain quote.
func FromQuote(q *quote.Quote) QuoteResponse {
	resp := QuoteResponse{
		DocumentResponse: FromDocument(q.Document),
		ValidUntil:       q.ValidUntil,
	}
	if q.InvoiceID != nil {
		s := q.InvoiceID.String()
		resp.InvoiceID = &s
	}
	return resp
}
