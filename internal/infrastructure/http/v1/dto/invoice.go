package dto

import (
	"time"

	"facturador/internal/core/id"
	"facturador/internal/domain/documents/invoice"
)

// CreateInvoiceRequest creates a draft invoice, or an issued one when Issue
// is set.
type CreateInvoiceRequest struct {
	IssuerID string `json:"issuerId" binding:"required"`
	ClientID string `json:"clientId" binding:"required"`

	IssueDate       *time.Time `json:"issueDate"`
	PaymentTermDays int        `json:"paymentTermDays"`
	Notes           string     `json:"notes"`

	Lines []LineRequest `json:"lines" binding:"required"`

	// Issue assigns the number and issues in the same request.
	Issue bool `json:"issue"`
}

// ToEntity maps the request to a draft invoice. Defaults the issue date to
// today.
func (r CreateInvoiceRequest) ToEntity(issuerID, clientID id.ID) *invoice.Invoice {
	issueDate := time.Now().UTC()
	if r.IssueDate != nil {
		issueDate = *r.IssueDate
	}
	inv := invoice.New(issuerID, clientID, issueDate, r.PaymentTermDays)
	inv.Notes = r.Notes
	return inv
}

// UpdateInvoiceRequest replaces a draft's content wholesale.
type UpdateInvoiceRequest struct {
	IssueDate       *time.Time    `json:"issueDate"`
	PaymentTermDays int           `json:"paymentTermDays"`
	Notes           string        `json:"notes"`
	Lines           []LineRequest `json:"lines" binding:"required"`
}

// ToInput maps the request to the service input.
func (r UpdateInvoiceRequest) ToInput() invoice.EditDraftInput {
	in := invoice.EditDraftInput{
		PaymentTermDays: r.PaymentTermDays,
		Notes:           r.Notes,
		Lines:           ToLines(r.Lines),
	}
	if r.IssueDate != nil {
		in.IssueDate = *r.IssueDate
	}
	return in
}

// InvoiceResponse is a stored invoice.
type InvoiceResponse struct {
	DocumentResponse

	PaymentTermDays int        `json:"paymentTermDays"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
}

// FromInvoice maps a domain invoice.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{
		DocumentResponse: FromDocument(inv.Document),
		PaymentTermDays:  inv.PaymentTermDays,
		DueDate:          inv.DueDate,
	}
}
