package client

import (
	"context"

	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/pkg/logger"
)

// Service provides thin catalog operations for clients.
type Service struct {
	repo Repository
}

// NewService creates a new client service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new client.
func (s *Service) Create(ctx context.Context, cl *Client) error {
	if err := cl.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, cl); err != nil {
		return err
	}
	logger.Info(ctx, "client created", "id", cl.ID, "name", cl.Name)
	return nil
}

// GetByID retrieves a client.
func (s *Service) GetByID(ctx context.Context, clientID id.ID) (*Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

// Update modifies client master data.
func (s *Service) Update(ctx context.Context, cl *Client) error {
	if err := cl.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, cl)
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, clientID id.ID) error {
	return s.repo.Delete(ctx, clientID)
}

// List retrieves clients with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error) {
	return s.repo.List(ctx, filter)
}
