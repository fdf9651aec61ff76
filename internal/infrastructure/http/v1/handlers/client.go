package handlers

import (
	"github.com/gin-gonic/gin"

	"facturador/internal/domain"
	"facturador/internal/domain/catalogs/client"
	"facturador/internal/infrastructure/http/v1/dto"
)

// ClientHandler handles HTTP requests for the client catalog.
type ClientHandler struct {
	*BaseHandler
	service *client.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(base *BaseHandler, service *client.Service) *ClientHandler {
	return &ClientHandler{BaseHandler: base, service: service}
}

// Create handles POST /clients.
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromClient(cl))
}

// Get handles GET /clients/:id.
func (h *ClientHandler) Get(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromClient(cl))
}

// Update handles PUT /clients/:id.
func (h *ClientHandler) Update(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(cl)

	if err := h.service.Update(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromClient(cl))
}

// Delete handles DELETE /clients/:id.
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), clientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /clients.
func (h *ClientHandler) List(c *gin.Context) {
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

	h.OK(c, dto.NewListResponse(result, dto.FromClient))
}
