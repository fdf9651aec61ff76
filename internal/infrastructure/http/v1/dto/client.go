package dto

import (
	"facturador/internal/domain/catalogs/client"
)

// CreateClientRequest registers a new client.
type CreateClientRequest struct {
	Name  string `json:"name" binding:"required"`
	TaxID string `json:"taxId" binding:"required"`

	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
	Province   string `json:"province"`

	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ToEntity maps the request to a new client.
func (r CreateClientRequest) ToEntity() *client.Client {
	cl := client.New(r.Name, r.TaxID)
	cl.Address = r.Address
	cl.PostalCode = r.PostalCode
	cl.City = r.City
	cl.Province = r.Province
	cl.Email = r.Email
	cl.Phone = r.Phone
	return cl
}

// UpdateClientRequest updates client master data.
type UpdateClientRequest struct {
	Name  *string `json:"name"`
	TaxID *string `json:"taxId"`

	Address    *string `json:"address"`
	PostalCode *string `json:"postalCode"`
	City       *string `json:"city"`
	Province   *string `json:"province"`

	Email *string `json:"email"`
	Phone *string `json:"phone"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies non-nil fields to the existing client.
func (r UpdateClientRequest) ApplyTo(cl *client.Client) {
	if r.Name != nil {
		cl.Name = *r.Name
	}
	if r.TaxID != nil {
		cl.TaxID = *r.TaxID
	}
	if r.Address != nil {
		cl.Address = *r.Address
	}
	if r.PostalCode != nil {
		cl.PostalCode = *r.PostalCode
	}
	if r.City != nil {
		cl.City = *r.City
	}
	if r.Province != nil {
		cl.Province = *r.Province
	}
	if r.Email != nil {
		cl.Email = *r.Email
	}
	if r.Phone != nil {
		cl.Phone = *r.Phone
	}
	cl.SetVersion(r.Version)
}

// ClientResponse is a stored client.
type ClientResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`

	Name  string `json:"name"`
	TaxID string `json:"taxId"`

	Address    string `json:"address,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`

	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// FromClient maps a domain client.
func FromClient(cl *client.Client) ClientResponse {
	return ClientResponse{
		ID:         cl.ID.String(),
		Version:    cl.Version,
		Name:       cl.Name,
		TaxID:      cl.TaxID,
		Address:    cl.Address,
		PostalCode: cl.PostalCode,
		City:       cl.City,
		Province:   cl.Province,
		Email:      cl.Email,
		Phone:      cl.Phone,
	}
}
