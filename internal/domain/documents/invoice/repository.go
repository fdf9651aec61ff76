package invoice

import (
	"context"

	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/domain/documents"
)

// Repository defines storage operations for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate locks the invoice row for the ambient transaction
	// (SELECT ... FOR UPDATE). Must be called inside a transaction.
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	Update(ctx context.Context, inv *Invoice) error

	// Delete removes the invoice and cascades to its lines. The service layer
	// only calls it for drafts; removing numbered invoices breaks gapless
	// numbering and is not guarded here.
	Delete(ctx context.Context, invoiceID id.ID) error

	GetLines(ctx context.Context, invoiceID id.ID) ([]documents.Line, error)

	// SaveLines replaces the invoice's lines wholesale (delete-all, recreate).
	SaveLines(ctx context.Context, invoiceID id.ID, lines []documents.Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	IssuerID *id.ID
	ClientID *id.ID
	Status   *documents.Status
	Year     *int
}
