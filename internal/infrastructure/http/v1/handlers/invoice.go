package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohit-ihs-314/invoice-backend/internal/core/apperror"
	"github.com/mohit-ihs-314/invoice-backend/internal/domain/invoice"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/dto"
)

// InvoiceService is the slice of the domain service the handlers use.
type InvoiceService interface {
	Save(ctx context.Context, payload invoice.Payload) (string, error)
	Get(ctx context.Context, id int64) (json.RawMessage, error)
	List(ctx context.Context) ([]invoice.Summary, error)
	Delete(ctx context.Context, id int64) error
}

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	*BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RegisterRoutes registers invoice endpoints on the router group.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/save-invoice", h.Save)
	rg.GET("/invoices", h.List)
	rg.GET("/get-invoice/:id", h.Get)
	rg.DELETE("/delete-invoice/:id", h.Delete)
}

// Save handles POST /save-invoice.
// The body is a free-form invoice document; the server allocates the
// document number and echoes it back.
func (h *InvoiceHandler) Save(c *gin.Context) {
	var payload invoice.Payload
	if !h.BindJSON(c, &payload) {
		return
	}

	invoiceNo, err := h.service.Save(c.Request.Context(), payload)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.SaveInvoiceResponse{
		Status:        "success",
		InvoiceNumber: invoiceNo,
	})
}

// List handles GET /invoices: summary views, newest first.
func (h *InvoiceHandler) List(c *gin.Context) {
	summaries, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if summaries == nil {
		summaries = []invoice.Summary{}
	}
	c.JSON(http.StatusOK, summaries)
}

// Get handles GET /get-invoice/:id: the full payload as originally
// submitted, with invoiceNumber injected.
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	data, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if apperror.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		h.Error(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}

// Delete handles DELETE /delete-invoice/:id. Idempotent: deleting an id
// that does not exist still reports success.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.ParseIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteResponse{Message: "Deleted"})
}
