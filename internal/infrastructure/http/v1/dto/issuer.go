package dto

import (
	"facturador/internal/domain/catalogs/issuer"
)

// CreateIssuerRequest registers a new issuer.
type CreateIssuerRequest struct {
	Name      string `json:"name" binding:"required"`
	TradeName string `json:"tradeName"`
	TaxID     string `json:"taxId" binding:"required"`

	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Province   string `json:"province"`

	CurrentSeries string `json:"currentSeries"`
}

// ToEntity maps the request to a new issuer.
func (r CreateIssuerRequest) ToEntity() *issuer.Issuer {
	iss := issuer.New(r.Name, r.TaxID)
	iss.TradeName = r.TradeName
	iss.Address = r.Address
	iss.PostalCode = r.PostalCode
	iss.City = r.City
	iss.Province = r.Province
	if r.CurrentSeries != "" {
		iss.CurrentSeries = r.CurrentSeries
	}
	return iss
}

// UpdateIssuerRequest updates issuer master data. Numbering counters are not
// part of the payload; they only move through issuing documents.
type UpdateIssuerRequest struct {
	Name      *string `json:"name"`
	TradeName *string `json:"tradeName"`

	Address    *string `json:"address"`
	PostalCode *string `json:"postalCode"`
	City       *string `json:"city"`
	Province   *string `json:"province"`

	CurrentSeries *string `json:"currentSeries"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies non-nil fields to the existing issuer.
func (r UpdateIssuerRequest) ApplyTo(iss *issuer.Issuer) {
	if r.Name != nil {
		iss.Name = *r.Name
	}
	if r.TradeName != nil {
		iss.TradeName = *r.TradeName
	}
	if r.Address != nil {
		iss.Address = *r.Address
	}
	if r.PostalCode != nil {
		iss.PostalCode = *r.PostalCode
	}
	if r.City != nil {
		iss.City = *r.City
	}
	if r.Province != nil {
		iss.Province = *r.Province
	}
	if r.CurrentSeries != nil {
		iss.CurrentSeries = *r.CurrentSeries
	}
	iss.SetVersion(r.Version)
}

// IssuerResponse is a stored issuer.
type IssuerResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`

	Name      string `json:"name"`
	TradeName string `json:"tradeName,omitempty"`
	TaxID     string `json:"taxId"`

	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`

	CurrentSeries     string `json:"currentSeries"`
	LastInvoiceNumber int64  `json:"lastInvoiceNumber"`
	LastQuoteNumber   int64  `json:"lastQuoteNumber"`
}

// FromIssuer maps a domain issuer.
func FromIssuer(iss *issuer.Issuer) IssuerResponse {
	return IssuerResponse{
		ID:                iss.ID.String(),
		Version:           iss.Version,
		Name:              iss.Name,
		TradeName:         iss.TradeName,
		TaxID:             iss.TaxID,
		Address:           iss.Address,
		PostalCode:        iss.PostalCode,
		City:              iss.City,
		Province:          iss.Province,
		CurrentSeries:     iss.CurrentSeries,
		LastInvoiceNumber: iss.LastInvoiceNumber,
		LastQuoteNumber:   iss.LastQuoteNumber,
	}
}
