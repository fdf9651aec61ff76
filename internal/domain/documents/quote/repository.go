package quote

import (
	"context"

	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/domain/documents"
)

// Repository defines storage operations for quotes.
type Repository interface {
	Create(ctx context.Context, q *Quote) error
	GetByID(ctx context.Context, quoteID id.ID) (*Quote, error)

	// GetForUpdate locks the quote row for the ambient transaction
	// (SELECT ... FOR UPDATE). Must be called inside a transaction.
	GetForUpdate(ctx context.Context, quoteID id.ID) (*Quote, error)

	Update(ctx context.Context, q *Quote) error

	// Delete removes the quote and cascades to its lines. The service layer
	// only calls it for drafts.
	Delete(ctx context.Context, quoteID id.ID) error

	GetLines(ctx context.Context, quoteID id.ID) ([]documents.Line, error)

	// SaveLines replaces the quote's lines wholesale (delete-all, recreate).
	SaveLines(ctx context.Context, quoteID id.ID, lines []documents.Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quote], error)
}

// ListFilter for filtering quotes.
type ListFilter struct {
	domain.ListFilter

	IssuerID *id.ID
	ClientID *id.ID
	Status   *documents.Status
	Year     *int
}
