package handler

import (
	"context"
	"strings"
	"time"

	appfinance "github.com/Erenishere/pharam-sub008/internal/application/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService is the accounting ledger used by LedgerHandler
type LedgerService interface {
	PostDoubleEntry(ctx context.Context, d finance.DoubleEntry, actorID uuid.UUID) (uuid.UUID, error)
	BalanceAsOf(ctx context.Context, account finance.AccountRef, at time.Time) (decimal.Decimal, error)
	Statement(ctx context.Context, account finance.AccountRef, r shared.DateRange) (*finance.Statement, error)
	TrialBalance(ctx context.Context, at time.Time) (*finance.TrialBalance, error)
	VerifyReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (*appfinance.ReferenceCheck, error)
}

var _ LedgerService = (*appfinance.LedgerService)(nil)

// AccountRequest names a ledger account. Control accounts may be given by
// name (INVENTORY, SALES, CASH) instead of ID.
type AccountRequest struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ManualEntryRequest posts a manual balanced pair
type ManualEntryRequest struct {
	Debit         AccountRequest  `json:"debit"`
	Credit        AccountRequest  `json:"credit"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Narration     string          `json:"narration"`
	ActorID       uuid.UUID       `json:"actor_id"`
}

// AccountBalanceResponse is an account's balance at a point in time
type AccountBalanceResponse struct {
	Account finance.AccountRef `json:"account"`
	Name    string             `json:"name"`
	AsOf    time.Time          `json:"as_of"`
	Balance decimal.Decimal    `json:"balance"`
}

// LedgerHandler handles accounting ledger HTTP requests
type LedgerHandler struct {
	BaseHandler
	service LedgerService
	now     func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		now:         time.Now,
	}
}

// parseAccount resolves an account type and identifier. For control
// accounts the identifier may be the account name.
func parseAccount(accountType, id string) (finance.AccountRef, error) {
	t := finance.AccountType(strings.ToLower(accountType))
	if !t.IsValid() {
		return finance.AccountRef{}, shared.NewDomainError("INVALID_ACCOUNT", "unknown account type "+accountType)
	}
	if t == finance.AccountTypeControl {
		if ctrl := finance.ControlAccount(strings.ToUpper(id)); ctrl.ID() != uuid.Nil {
			return ctrl.Ref(), nil
		}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return finance.AccountRef{}, shared.NewDomainError("INVALID_ACCOUNT", "account id must be a UUID or control account name")
	}
	return finance.AccountRef{ID: parsed, Type: t}, nil
}

func (h *LedgerHandler) pathAccount(c *gin.Context) (finance.AccountRef, bool) {
	ref, err := parseAccount(c.Param("type"), c.Param("id"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return finance.AccountRef{}, false
	}
	return ref, true
}

// PostEntry posts a manual double entry
func (h *LedgerHandler) PostEntry(c *gin.Context) {
	var req ManualEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actorID(c, req.ActorID)
	if !ok {
		return
	}
	debit, err := parseAccount(req.Debit.Type, req.Debit.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	credit, err := parseAccount(req.Credit.Type, req.Credit.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	refType := req.ReferenceType
	if refType == "" {
		refType = finance.ReferenceTypeAdjustment
	}
	refID := req.ReferenceID
	if refID == uuid.Nil {
		refID = uuid.New()
	}
	txID, err := h.service.PostDoubleEntry(c.Request.Context(), finance.DoubleEntry{
		Debit:         debit,
		Credit:        credit,
		Amount:        req.Amount,
		Kind:          finance.EntryKindManual,
		ReferenceType: refType,
		ReferenceID:   refID,
		Narration:     req.Narration,
	}, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, gin.H{"transaction_id": txID, "reference_id": refID})
}

// Balance returns an account's balance as of the "at" query parameter, or now
func (h *LedgerHandler) Balance(c *gin.Context) {
	account, ok := h.pathAccount(c)
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
	balance, err := h.service.BalanceAsOf(c.Request.Context(), account, at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, AccountBalanceResponse{Account: account, Name: account.Name(), AsOf: at, Balance: balance})
}

// Statement returns an account's entries over from/to with running balances
func (h *LedgerHandler) Statement(c *gin.Context) {
	account, ok := h.pathAccount(c)
	if !ok {
		return
	}
	r, ok := h.queryRange(c)
	if !ok {
		return
	}
	stmt, err := h.service.Statement(c.Request.Context(), account, r)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stmt)
}

// TrialBalance sums every account as of the "at" query parameter, or now
func (h *LedgerHandler) TrialBalance(c *gin.Context) {
	at, ok := h.queryTime(c, "at", true)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(c.Request.Context(), at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tb)
}

// VerifyReference checks that one reference's debits equal its credits
func (h *LedgerHandler) VerifyReference(c *gin.Context) {
	refID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	check, err := h.service.VerifyReference(c.Request.Context(), c.Param("type"), refID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, check)
}

// RegisterRoutes mounts the ledger endpoints under /ledger
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/ledger")
	g.POST("/entries", h.PostEntry)
	g.GET("/accounts/:type/:id/balance", h.Balance)
	g.GET("/accounts/:type/:id/statement", h.Statement)
	g.GET("/trial-balance", h.TrialBalance)
	g.GET("/references/:type/:id", h.VerifyReference)
}
