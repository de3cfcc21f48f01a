package handler

import (
	"context"
	"strconv"
	"time"

	appinv "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockService is the stock ledger used by StockHandler
type StockService interface {
	BalanceAsOf(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error)
	History(ctx context.Context, itemID uuid.UUID, r shared.DateRange) (*appinv.StockHistoryResponse, error)
	RecordAdjustment(ctx context.Context, req appinv.AdjustStockRequest) (*appinv.MovementResponse, error)
	LowStock(ctx context.Context) ([]inventory.StockAlert, error)
	ExpiringBatches(ctx context.Context, within time.Duration) ([]inventory.BatchBalance, error)
	RebuildProjection(ctx context.Context, itemID *uuid.UUID) (int, error)
	VerifyProjection(ctx context.Context) ([]inventory.ProjectionDrift, error)
	SuggestPicks(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) (*inventory.PickPlan, error)
}

var _ StockService = (*appinv.StockLedgerService)(nil)

// BalanceResponse is an item's stock balance at a point in time
type BalanceResponse struct {
	ItemID  uuid.UUID       `json:"item_id"`
	AsOf    time.Time       `json:"as_of"`
	Balance decimal.Decimal `json:"balance"`
}

// ProjectionCheckResponse reports drift between stock levels and the log
type ProjectionCheckResponse struct {
	Consistent bool                        `json:"consistent"`
	Drifts     []inventory.ProjectionDrift `json:"drifts"`
}

// StockHandler handles stock ledger HTTP requests
type StockHandler struct {
	BaseHandler
	service    StockService
	expiryDays int
	now        func() time.Time
}

// NewStockHandler creates a new StockHandler. expiryDays is the default
// look-ahead for the expiring batch report.
func NewStockHandler(service StockService, expiryDays int, logger *zap.Logger) *StockHandler {
	if expiryDays <= 0 {
		expiryDays = 90
	}
	return &StockHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		expiryDays:  expiryDays,
		now:         time.Now,
	}
}

// Adjust records a manual stock adjustment
func (h *StockHandler) Adjust(c *gin.Context) {
	var req appinv.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	req.ActorID = actor

	resp, err := h.service.RecordAdjustment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Balance returns an item's balance as of the "at" query parameter, or now
func (h *StockHandler) Balance(c *gin.Context) {
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	at, ok := h.queryTime(c, "at", true)
	if !ok {
		return
	}
	if at.IsZero() {
		at = h.now().UTC()
	}
	balance, err := h.service.BalanceAsOf(c.Request.Context(), itemID, at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BalanceResponse{ItemID: itemID, AsOf: at, Balance: balance})
}

// History returns an item's movements with running balances
func (h *StockHandler) History(c *gin.Context) {
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	r, ok := h.queryRange(c)
	if !ok {
		return
	}
	resp, err := h.service.History(c.Request.Context(), itemID, r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// LowStock lists items outside their configured stock band
func (h *StockHandler) LowStock(c *gin.Context) {
	alerts, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// Expiring lists batches that expire within "days" days
func (h *StockHandler) Expiring(c *gin.Context) {
	days := h.expiryDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.BadRequest(c, "Invalid days: must be a non-negative integer")
			return
		}
		days = n
	}
	batches, err := h.service.ExpiringBatches(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// Picks suggests which batches to dispatch a quantity from
func (h *StockHandler) Picks(c *gin.Context) {
	itemID, ok := h.pathID(c, "item_id")
	if !ok {
		return
	}
	qty, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil || !qty.IsPositive() {
		h.BadRequest(c, "Invalid quantity: must be a positive number")
		return
	}
	plan, err := h.service.SuggestPicks(c.Request.Context(), itemID, qty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// Rebuild recomputes stock levels from the movement log. An item_id query
// parameter limits the rebuild to one item.
func (h *StockHandler) Rebuild(c *gin.Context) {
	var itemID *uuid.UUID
	if raw := c.Query("item_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid item_id: must be a UUID")
			return
		}
		itemID = &id
	}
	n, err := h.service.RebuildProjection(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"rebuilt": n})
}

// Verify compares stock levels with the movement log
func (h *StockHandler) Verify(c *gin.Context) {
	drifts, err := h.service.VerifyProjection(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ProjectionCheckResponse{Consistent: len(drifts) == 0, Drifts: drifts})
}

// RegisterRoutes mounts the stock endpoints under /stock
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/stock")
	g.POST("/adjustments", h.Adjust)
	g.GET("/items/:item_id/balance", h.Balance)
	g.GET("/items/:item_id/history", h.History)
	g.GET("/items/:item_id/picks", h.Picks)
	g.GET("/alerts", h.LowStock)
	g.GET("/expiring", h.Expiring)
	g.POST("/projection/rebuild", h.Rebuild)
	g.GET("/projection/verify", h.Verify)
}
