package handler

import (
	"context"

	tradeapp "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InvoiceService is the invoice lifecycle used by InvoiceHandler
type InvoiceService interface {
	CreateDraft(ctx context.Context, req tradeapp.CreateInvoiceRequest) (*tradeapp.InvoiceResponse, error)
	UpdateDraftLines(ctx context.Context, id uuid.UUID, req tradeapp.UpdateLinesRequest) (*tradeapp.InvoiceResponse, error)
	Confirm(ctx context.Context, id, actorID uuid.UUID) (*tradeapp.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID, req tradeapp.CancelRequest) (*tradeapp.InvoiceResponse, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req tradeapp.PaymentRequest) (*tradeapp.InvoiceResponse, error)
	UpdateTransport(ctx context.Context, id uuid.UUID, info trade.TransportInfo) (*tradeapp.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*tradeapp.InvoiceResponse, error)
	GetByNumber(ctx context.Context, number string) (*tradeapp.InvoiceResponse, error)
	List(ctx context.Context, filter tradeapp.InvoiceListFilter) (*shared.Paginated[tradeapp.InvoiceResponse], error)
}

var _ InvoiceService = (*tradeapp.InvoiceService)(nil)

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateDraft creates a draft sales or purchase invoice
func (h *InvoiceHandler) CreateDraft(c *gin.Context) {
	var req tradeapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	req.ActorID = actor

	resp, err := h.service.CreateDraft(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateLines replaces the lines of a draft invoice
func (h *InvoiceHandler) UpdateLines(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	req.ActorID = actor

	resp, err := h.service.UpdateDraftLines(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Confirm posts a draft invoice to stock and the ledger
func (h *InvoiceHandler) Confirm(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorID(c, uuid.Nil)
	if !ok {
		return
	}
	telemetry.SetAttributes(trace.SpanFromContext(c.Request.Context()), telemetry.SpanAttrInvoiceID, id.String())

	resp, err := h.service.Confirm(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels an invoice, reversing its postings when it was confirmed
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	req.ActorID = actor

	resp, err := h.service.Cancel(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecordPayment records a settlement against a confirmed invoice
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.PaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	req.ActorID = actor

	resp, err := h.service.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateTransport replaces the transport details of an invoice
func (h *InvoiceHandler) UpdateTransport(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var info trade.TransportInfo
	if !h.bindJSON(c, &info) {
		return
	}
	resp, err := h.service.UpdateTransport(c.Request.Context(), id, info)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID returns one invoice with its lines
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber returns the invoice with the given number
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	resp, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of invoices matching the query filter
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter tradeapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if raw := c.Query("party_id"); raw != "" {
		partyID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid party_id: must be a UUID")
			return
		}
		filter.PartyID = &partyID
	}
	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RegisterRoutes mounts the invoice endpoints under /invoices
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/invoices")
	g.POST("", h.CreateDraft)
	g.GET("", h.List)
	g.GET("/number/:number", h.GetByNumber)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id/lines", h.UpdateLines)
	g.PUT("/:id/transport", h.UpdateTransport)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/payments", h.RecordPayment)
}
