package issuer

import (
	"context"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/pkg/logger"
)

// Service provides thin catalog operations for issuers. Numbering state lives
// on the issuer row but is advanced exclusively by the numbering authority.
type Service struct {
	repo Repository
}

// NewService creates a new issuer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new issuer.
func (s *Service) Create(ctx context.Context, iss *Issuer) error {
	if err := iss.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.repo.GetByTaxID(ctx, iss.TaxID); err == nil && existing != nil {
		return apperror.NewDuplicate("issuer", "taxId", iss.TaxID)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	if err := s.repo.Create(ctx, iss); err != nil {
		return err
	}

	logger.Info(ctx, "issuer created", "id", iss.ID, "tax_id", iss.TaxID)
	return nil
}

// GetByID retrieves an issuer.
func (s *Service) GetByID(ctx context.Context, issuerID id.ID) (*Issuer, error) {
	return s.repo.GetByID(ctx, issuerID)
}

// Update modifies issuer master data. Counter fields are ignored by the
// repository even if changed on the model.
func (s *Service) Update(ctx context.Context, iss *Issuer) error {
	if err := iss.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, iss)
}

// Delete removes an issuer. Issued documents keep referencing the row, so
// deletion fails on foreign keys when any document exists.
func (s *Service) Delete(ctx context.Context, issuerID id.ID) error {
	return s.repo.Delete(ctx, issuerID)
}

// List retrieves issuers with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Issuer], error) {
	return s.repo.List(ctx, filter)
}
