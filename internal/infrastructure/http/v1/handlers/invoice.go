package handlers

import (
	"github.com/gin-gonic/gin"

	"facturador/internal/core/apperror"
	"facturador/internal/core/id"
	"facturador/internal/domain"
	"facturador/internal/domain/documents"
	"facturador/internal/domain/documents/invoice"
	"facturador/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices. With "issue": true the invoice is numbered
// and issued in the same transaction.
func (h *InvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateInvoiceRequest
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

	inv := req.ToEntity(issuerID, clientID)
	lines := dto.ToLines(req.Lines)

	if req.Issue {
		err = h.service.CreateIssued(ctx, inv, lines)
	} else {
		err = h.service.CreateDraft(ctx, inv, lines)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(inv))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Update handles PUT /invoices/:id. Drafts only: the line table is replaced
// wholesale and the totals recomputed.
func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.EditDraft(c.Request.Context(), invoiceID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Issue handles POST /invoices/:id/issue. Assigns the next gapless number
// and freezes the document.
func (h *InvoiceHandler) Issue(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.Issue(c.Request.Context(), invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// ChangeStatus handles POST /invoices/:id/status for post-issue transitions
// (sent, paid, cancelled).
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.ChangeStatus(c.Request.Context(), invoiceID, documents.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id. Drafts only.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	filter := invoice.ListFilter{
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

	h.OK(c, dto.NewListResponse(result, dto.FromInvoice))
}
