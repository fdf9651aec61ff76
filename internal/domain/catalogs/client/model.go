// Package client provides the customer catalog referenced by documents.
package client

import (
	"context"
	"strings"

	"facturador/internal/core/apperror"
	"facturador/internal/core/entity"
)

// Client is a customer a document is addressed to.
type Client struct {
	entity.BaseCatalog

	Name string `db:"name" json:"name"`

	// TaxID is the client's NIF/CIF.
	TaxID string `db:"tax_id" json:"taxId"`

	Address    string `db:"address" json:"address,omitempty"`
	PostalCode string `db:"postal_code" json:"postalCode,omitempty"`
	City       string `db:"city" json:"city,omitempty"`
	Province   string `db:"province" json:"province,omitempty"`

	Email string `db:"email" json:"email,omitempty"`
	Phone string `db:"phone" json:"phone,omitempty"`
}

// New creates a client.
func New(name, taxID string) *Client {
	return &Client{
		BaseCatalog: entity.NewBaseCatalog(),
		Name:        name,
		TaxID:       taxID,
	}
}

// Validate implements entity.Validatable.
func (c *Client) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(c.TaxID) == "" {
		return apperror.NewValidation("tax id is required").
			WithDetail("field", "taxId")
	}
	return nil
}
