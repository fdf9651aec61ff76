package handlers

import (
	"github.com/gin-gonic/gin"

	"facturador/internal/domain"
	"facturador/internal/domain/catalogs/issuer"
	"facturador/internal/infrastructure/http/v1/dto"
)

// IssuerHandler handles HTTP requests for the issuer catalog.
type IssuerHandler struct {
	*BaseHandler
	service *issuer.Service
}

// NewIssuerHandler creates a new issuer handler.
func NewIssuerHandler(base *BaseHandler, service *issuer.Service) *IssuerHandler {
	return &IssuerHandler{BaseHandler: base, service: service}
}

// Create handles POST /issuers.
func (h *IssuerHandler) Create(c *gin.Context) {
	var req dto.CreateIssuerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	iss := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), iss); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromIssuer(iss))
}

// Get handles GET /issuers/:id.
func (h *IssuerHandler) Get(c *gin.Context) {
	issuerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	iss, err := h.service.GetByID(c.Request.Context(), issuerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIssuer(iss))
}

// Update handles PUT /issuers/:id. Counters are not updatable through this
// endpoint.
func (h *IssuerHandler) Update(c *gin.Context) {
	issuerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateIssuerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	iss, err := h.service.GetByID(c.Request.Context(), issuerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(iss)

	if err := h.service.Update(c.Request.Context(), iss); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIssuer(iss))
}

// Delete handles DELETE /issuers/:id.
func (h *IssuerHandler) Delete(c *gin.Context) {
	issuerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), issuerID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /issuers.
func (h *IssuerHandler) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromIssuer))
}
