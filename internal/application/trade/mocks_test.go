package trade

import (
	"context"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of trade.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*trade.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Find(ctx context.Context, filter trade.InvoiceFilter) ([]trade.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindReturnsOf(ctx context.Context, originalID uuid.UUID) ([]trade.Invoice, error) {
	args := m.Called(ctx, originalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, inv *trade.Invoice, expected trade.InvoiceStatus) error {
	args := m.Called(ctx, inv, expected)
	return args.Error(0)
}

// MockNumberSequence is a mock implementation of trade.NumberSequence
type MockNumberSequence struct {
	mock.Mock
}

func (m *MockNumberSequence) Next(ctx context.Context, prefix string, year int) (int64, error) {
	args := m.Called(ctx, prefix, year)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	args := m.Called(ctx, movements)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) FindBySource(ctx context.Context, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) Find(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) SumQuantity(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, itemID, at)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStockMovementRepository) SumByItem(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

func (m *MockStockMovementRepository) BatchBalances(ctx context.Context, itemID *uuid.UUID) ([]inventory.BatchBalance, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.BatchBalance), args.Error(1)
}

// MockStockLevelRepository is a mock implementation of inventory.StockLevelRepository
type MockStockLevelRepository struct {
	mock.Mock
}

func (m *MockStockLevelRepository) FindByItem(ctx context.Context, itemID uuid.UUID) (*inventory.StockLevel, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindAll(ctx context.Context) ([]inventory.StockLevel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) Apply(ctx context.Context, level *inventory.StockLevel, delta decimal.Decimal) error {
	args := m.Called(ctx, level, delta)
	return args.Error(0)
}

func (m *MockStockLevelRepository) Set(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error {
	args := m.Called(ctx, itemID, quantity)
	return args.Error(0)
}

// MockLedgerEntryRepository is a mock implementation of finance.LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Append(ctx context.Context, entries ...*finance.LedgerEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, referenceType, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) Find(ctx context.Context, filter finance.EntryFilter) ([]finance.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) TotalsForAccount(ctx context.Context, account finance.AccountRef, at time.Time) (finance.AccountTotals, error) {
	args := m.Called(ctx, account, at)
	return args.Get(0).(finance.AccountTotals), args.Error(1)
}

func (m *MockLedgerEntryRepository) TotalsByAccount(ctx context.Context, at time.Time) ([]finance.AccountTotals, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.AccountTotals), args.Error(1)
}

func (m *MockLedgerEntryRepository) ReferenceImbalances(ctx context.Context, at time.Time) ([]finance.ReferenceImbalance, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.ReferenceImbalance), args.Error(1)
}

// MockItemReader is a mock implementation of catalog.ItemReader
type MockItemReader struct {
	mock.Mock
}

func (m *MockItemReader) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemReader) ListActive(ctx context.Context) ([]catalog.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

// MockPartyReader is a mock implementation of partner.PartyReader
type MockPartyReader struct {
	mock.Mock
}

func (m *MockPartyReader) GetByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Party), args.Error(1)
}

func (m *MockPartyReader) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Party), args.Error(1)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Lock), args.Error(1)
}

// MockLock is a mock implementation of Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
