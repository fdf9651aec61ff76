package catalog_repo

import (
	"facturador/internal/domain/catalogs/client"
	"facturador/internal/infrastructure/storage/postgres"
)

// ClientRepo is the PostgreSQL implementation of client.Repository.
type ClientRepo struct {
	*BaseCatalogRepo[*client.Client]
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txm *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			"clients",
			nil,
			[]string{"name", "tax_id", "email"},
			func() *client.Client { return &client.Client{} },
		),
	}
}
