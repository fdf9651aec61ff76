package issuer

import (
	"context"

	"facturador/internal/core/id"
	"facturador/internal/domain"
)

// Repository defines storage operations for issuers.
//
// Update never writes the numbering counters; those columns belong to the
// numbering authority alone.
type Repository interface {
	Create(ctx context.Context, iss *Issuer) error
	GetByID(ctx context.Context, issuerID id.ID) (*Issuer, error)
	GetByTaxID(ctx context.Context, taxID string) (*Issuer, error)
	Update(ctx context.Context, iss *Issuer) error
	Delete(ctx context.Context, issuerID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Issuer], error)
	Exists(ctx context.Context, issuerID id.ID) (bool, error)
}
