// Package issuer provides the legal entities on whose behalf documents are
// issued. An issuer owns the numbering counters and the active invoice series.
package issuer

import (
	"context"
	"strings"

	"facturador/internal/core/apperror"
	"facturador/internal/core/entity"
)

// Issuer is a legal entity (sociedad) issuing invoices and quotes.
//
// LastInvoiceNumber and LastQuoteNumber are non-negative and only ever
// increase, and only through the numbering authority. Regular catalog updates
// never write these columns.
type Issuer struct {
	entity.BaseCatalog

	Name      string `db:"name" json:"name"`
	TradeName string `db:"trade_name" json:"tradeName,omitempty"`

	// TaxID is the Spanish NIF, unique across issuers.
	TaxID string `db:"tax_id" json:"taxId"`

	Address    string `db:"address" json:"address,omitempty"`
	PostalCode string `db:"postal_code" json:"postalCode,omitempty"`
	City       string `db:"city" json:"city,omitempty"`
	Province   string `db:"province" json:"province,omitempty"`

	// CurrentSeries is the active invoice series label, read fresh by the
	// numbering authority at issue time.
	CurrentSeries string `db:"current_series" json:"currentSeries"`

	LastInvoiceNumber int64 `db:"last_invoice_number" json:"lastInvoiceNumber"`
	LastQuoteNumber   int64 `db:"last_quote_number" json:"lastQuoteNumber"`
}

// New creates an issuer with series "A" and zeroed counters.
func New(name, taxID string) *Issuer {
	return &Issuer{
		BaseCatalog:   entity.NewBaseCatalog(),
		Name:          name,
		TaxID:         taxID,
		CurrentSeries: "A",
	}
}

// Validate implements entity.Validatable.
func (i *Issuer) Validate(ctx context.Context) error {
	if strings.TrimSpace(i.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(i.TaxID) == "" {
		return apperror.NewValidation("tax id is required").
			WithDetail("field", "taxId")
	}
	if strings.TrimSpace(i.CurrentSeries) == "" {
		return apperror.NewValidation("series is required").
			WithDetail("field", "currentSeries")
	}
	if i.LastInvoiceNumber < 0 || i.LastQuoteNumber < 0 {
		return apperror.NewValidation("counters must be non-negative")
	}
	return nil
}
