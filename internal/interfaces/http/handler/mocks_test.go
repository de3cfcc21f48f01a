package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	appfinance "github.com/Erenishere/pharam-sub008/internal/application/finance"
	appinv "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	tradeapp "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// newTestRouter mounts h under /api/v1 behind the request logging middleware
func newTestRouter(h routeRegistrar) *gin.Engine {
	engine := gin.New()
	engine.Use(logger.GinMiddleware(zap.NewNop()))
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"request_id"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total    int64 `json:"total"`
		Page     int   `json:"page"`
		PageSize int   `json:"page_size"`
	} `json:"meta"`
}

// perform sends a request with an optional JSON body and actor header
func perform(t *testing.T, engine *gin.Engine, method, path string, body any, actor uuid.UUID) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set(ActorIDHeader, actor.String())
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

type mockInvoiceService struct {
	mock.Mock
}

func (m *mockInvoiceService) invoice(args mock.Arguments) (*tradeapp.InvoiceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) CreateDraft(ctx context.Context, req tradeapp.CreateInvoiceRequest) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, req))
}

func (m *mockInvoiceService) UpdateDraftLines(ctx context.Context, id uuid.UUID, req tradeapp.UpdateLinesRequest) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id, req))
}

func (m *mockInvoiceService) Confirm(ctx context.Context, id, actorID uuid.UUID) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id, actorID))
}

func (m *mockInvoiceService) Cancel(ctx context.Context, id uuid.UUID, req tradeapp.CancelRequest) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id, req))
}

func (m *mockInvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req tradeapp.PaymentRequest) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id, req))
}

func (m *mockInvoiceService) UpdateTransport(ctx context.Context, id uuid.UUID, info trade.TransportInfo) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id, info))
}

func (m *mockInvoiceService) Get(ctx context.Context, id uuid.UUID) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, id))
}

func (m *mockInvoiceService) GetByNumber(ctx context.Context, number string) (*tradeapp.InvoiceResponse, error) {
	return m.invoice(m.Called(ctx, number))
}

func (m *mockInvoiceService) List(ctx context.Context, filter tradeapp.InvoiceListFilter) (*shared.Paginated[tradeapp.InvoiceResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[tradeapp.InvoiceResponse]), args.Error(1)
}

type mockReturnService struct {
	mock.Mock
}

func (m *mockReturnService) ValidateReturn(ctx context.Context, req tradeapp.CreateReturnRequest) (*tradeapp.ReturnCheckResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ReturnCheckResponse), args.Error(1)
}

func (m *mockReturnService) CreateReturn(ctx context.Context, req tradeapp.CreateReturnRequest) (*tradeapp.InvoiceResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.InvoiceResponse), args.Error(1)
}

type mockStockService struct {
	mock.Mock
}

func (m *mockStockService) BalanceAsOf(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, itemID, at)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockStockService) History(ctx context.Context, itemID uuid.UUID, r shared.DateRange) (*appinv.StockHistoryResponse, error) {
	args := m.Called(ctx, itemID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.StockHistoryResponse), args.Error(1)
}

func (m *mockStockService) RecordAdjustment(ctx context.Context, req appinv.AdjustStockRequest) (*appinv.MovementResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appinv.MovementResponse), args.Error(1)
}

func (m *mockStockService) LowStock(ctx context.Context) ([]inventory.StockAlert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]inventory.StockAlert)
	return alerts, args.Error(1)
}

func (m *mockStockService) ExpiringBatches(ctx context.Context, within time.Duration) ([]inventory.BatchBalance, error) {
	args := m.Called(ctx, within)
	batches, _ := args.Get(0).([]inventory.BatchBalance)
	return batches, args.Error(1)
}

func (m *mockStockService) RebuildProjection(ctx context.Context, itemID *uuid.UUID) (int, error) {
	args := m.Called(ctx, itemID)
	return args.Int(0), args.Error(1)
}

func (m *mockStockService) VerifyProjection(ctx context.Context) ([]inventory.ProjectionDrift, error) {
	args := m.Called(ctx)
	drifts, _ := args.Get(0).([]inventory.ProjectionDrift)
	return drifts, args.Error(1)
}

func (m *mockStockService) SuggestPicks(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) (*inventory.PickPlan, error) {
	args := m.Called(ctx, itemID, qty)
	plan, _ := args.Get(0).(*inventory.PickPlan)
	return plan, args.Error(1)
}

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) PostDoubleEntry(ctx context.Context, d finance.DoubleEntry, actorID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, d, actorID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockLedgerService) BalanceAsOf(ctx context.Context, account finance.AccountRef, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, account, at)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLedgerService) Statement(ctx context.Context, account finance.AccountRef, r shared.DateRange) (*finance.Statement, error) {
	args := m.Called(ctx, account, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Statement), args.Error(1)
}

func (m *mockLedgerService) TrialBalance(ctx context.Context, at time.Time) (*finance.TrialBalance, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.TrialBalance), args.Error(1)
}

func (m *mockLedgerService) VerifyReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (*appfinance.ReferenceCheck, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ReferenceCheck), args.Error(1)
}

var (
	_ InvoiceService = (*mockInvoiceService)(nil)
	_ ReturnService  = (*mockReturnService)(nil)
	_ StockService   = (*mockStockService)(nil)
	_ LedgerService  = (*mockLedgerService)(nil)
)
