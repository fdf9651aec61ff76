package document_repo

import (
	"context"

	"facturador/internal/domain"
	"facturador/internal/domain/documents/quote"
	"facturador/internal/infrastructure/storage/postgres"
)

// QuoteRepo is the PostgreSQL implementation of quote.Repository.
type QuoteRepo struct {
	*BaseDocumentRepo[*quote.Quote]
}

// NewQuoteRepo creates a new quote repository.
func NewQuoteRepo(txm *postgres.TxManager) *QuoteRepo {
	return &QuoteRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			"quotes",
			"quote_lines",
			func() *quote.Quote { return &quote.Quote{} },
		),
	}
}

// List retrieves quotes with quote-specific filtering.
func (r *QuoteRepo) List(ctx context.Context, filter quote.ListFilter) (domain.ListResult[*quote.Quote], error) {
	return r.list(ctx, filter.ListFilter, listConditions{
		IssuerID: filter.IssuerID,
		ClientID: filter.ClientID,
		Status:   filter.Status,
		Year:     filter.Year,
	})
}
