package client

import (
	"context"

	"facturador/internal/core/id"
	"facturador/internal/domain"
)

// Repository defines storage operations for clients.
type Repository interface {
	Create(ctx context.Context, cl *Client) error
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)
	Update(ctx context.Context, cl *Client) error
	Delete(ctx context.Context, clientID id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error)
	Exists(ctx context.Context, clientID id.ID) (bool, error)
}
