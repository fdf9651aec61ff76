package catalog_repo

import (
	"context"

	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/infrastructure/storage/postgres"
)

// IssuerRepo is the PostgreSQL implementation of issuer.Repository.
//
// The numbering counters (last_invoice_number, last_quote_number) are listed
// as immutable: regular updates never touch them, only the numbering
// authority's UPDATE ... RETURNING does.
type IssuerRepo struct {
	*BaseCatalogRepo[*issuer.Issuer]
}

// NewIssuerRepo creates a new issuer repository.
func NewIssuerRepo(txm *postgres.TxManager) *IssuerRepo {
	return &IssuerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"issuers",
			[]string{"last_invoice_number", "last_quote_number"},
			[]string{"name", "trade_name", "tax_id"},
			func() *issuer.Issuer { return &issuer.Issuer{} },
		),
	}
}

// GetByTaxID retrieves an issuer by its NIF.
func (r *IssuerRepo) GetByTaxID(ctx context.Context, taxID string) (*issuer.Issuer, error) {
	return r.GetBy(ctx, "tax_id", taxID)
}
