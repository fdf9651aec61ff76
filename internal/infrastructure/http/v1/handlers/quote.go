package handlers

import (
	"github.com/gin-gonic/gin"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/domain/documents"
	"facturador/internal/domain/documents/quote"
	"facturador/internal/infrastructure/http/v1/dto"
)

// QuoteHandler handles HTTP requests for quotes.
type QuoteHandler struct {
	*BaseHandler
	service *quote.Service
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(base *BaseHandler, service *quote.Service) *QuoteHandler {
	return &QuoteHandler{BaseHandler: base, service: service}
}

// Create handles POST /quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	issuerID, err := id.Parse(req.IssuerID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid issuerId"))
		return
	}
	clientID, err := id.Parse(req.ClientID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid clientId"))
		return
	}

	q := req.ToEntity(issuerID, clientID)
	if err := h.service.CreateDraft(ctx, q, dto.ToLines(req.Lines)); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromQuote(q))
}

// Get handles GET /quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	q, err := h.service.GetByID(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromQuote(q))
}

// Update handles PUT /quotes/:id. Drafts only.
func (h *QuoteHandler) Update(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := h.service.EditDraft(c.Request.Context(), quoteID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromQuote(q))
}

// Issue handles POST /quotes/:id/issue. Assigns the next quote number and
// marks the quote sent.
func (h *QuoteHandler) Issue(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	q, err := h.service.Issue(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromQuote(q))
}

// ChangeStatus handles POST /quotes/:id/status (accepted, rejected, expired).
func (h *QuoteHandler) ChangeStatus(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := h.service.ChangeStatus(c.Request.Context(), quoteID, documents.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromQuote(q))
}

// Convert handles POST /quotes/:id/convert. Creates the issued invoice from
// an accepted quote; a quote converts at most once.
func (h *QuoteHandler) Convert(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.Convert(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /quotes/:id. Drafts only.
func (h *QuoteHandler) Delete(c *gin.Context) {
	quoteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), quoteID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /quotes.
func (h *QuoteHandler) List(c *gin.Context) {
	filter := quote.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")

	if issuerID := c.Query("issuerId"); issuerID != "" {
		if parsed, err := id.Parse(issuerID); err == nil {
			filter.IssuerID = &parsed
		}
	}
	if clientID := c.Query("clientId"); clientID != "" {
		if parsed, err := id.Parse(clientID); err == nil {
			filter.ClientID = &parsed
		}
	}
	if status := c.Query("status"); status != "" {
		s := documents.Status(status)
		filter.Status = &s
	}
	if year := h.ParseIntQuery(c, "year", 0); year > 0 {
		filter.Year = &year
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, dto.FromQuote))
}
