package document_repo

import (
	"context"

	"facturador/internal/domain"
	"facturador/internal/domain/documents/invoice"
	"facturador/internal/infrastructure/storage/postgres"
)

// InvoiceRepo is the PostgreSQL implementation of invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			"invoices",
			"invoice_lines",
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// List retrieves invoices with invoice-specific filtering.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return r.list(ctx, filter.ListFilter, listConditions{
		IssuerID: filter.IssuerID,
		ClientID: filter.ClientID,
		Status:   filter.Status,
		Year:     filter.Year,
	})
}
