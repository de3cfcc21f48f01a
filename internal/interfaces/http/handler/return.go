package handler

import (
	"context"

	tradeapp "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReturnService validates and creates return invoices
type ReturnService interface {
	ValidateReturn(ctx context.Context, req tradeapp.CreateReturnRequest) (*tradeapp.ReturnCheckResponse, error)
	CreateReturn(ctx context.Context, req tradeapp.CreateReturnRequest) (*tradeapp.InvoiceResponse, error)
}

var _ ReturnService = (*tradeapp.ReturnService)(nil)

// ReturnHandler handles return invoice HTTP requests
type ReturnHandler struct {
	BaseHandler
	service ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(service ReturnService, logger *zap.Logger) *ReturnHandler {
	return &ReturnHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// Validate checks a return request against the original invoice without
// writing anything. Rejected lines come back as error details.
func (h *ReturnHandler) Validate(c *gin.Context) {
	req, ok := h.bindReturn(c)
	if !ok {
		return
	}
	resp, err := h.service.ValidateReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Create creates and posts a return invoice against a confirmed original
func (h *ReturnHandler) Create(c *gin.Context) {
	req, ok := h.bindReturn(c)
	if !ok {
		return
	}
	resp, err := h.service.CreateReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func (h *ReturnHandler) bindReturn(c *gin.Context) (tradeapp.CreateReturnRequest, bool) {
	var req tradeapp.CreateReturnRequest
	if !h.bindJSON(c, &req) {
		return req, false
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return req, false
	}
	req.ActorID = actor
	return req, true
}

// RegisterRoutes mounts the return endpoints under /returns
func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/returns")
	g.POST("", h.Create)
	g.POST("/validate", h.Validate)
}
