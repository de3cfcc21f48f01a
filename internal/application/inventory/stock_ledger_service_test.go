package inventory

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/application/unitofwork"
	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryMovements is an in-memory movement log
type memoryMovements struct {
	mu   sync.Mutex
	rows []inventory.StockMovement
}

func (r *memoryMovements) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range movements {
		r.rows = append(r.rows, *m)
	}
	return nil
}

func (r *memoryMovements) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			m := r.rows[i]
			return &m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryMovements) FindBySource(ctx context.Context, st inventory.SourceType, id uuid.UUID) ([]inventory.StockMovement, error) {
	return r.Find(ctx, inventory.MovementFilter{SourceType: st, SourceID: &id})
}

func (r *memoryMovements) Find(ctx context.Context, f inventory.MovementFilter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, m := range r.rows {
		if f.ItemID != nil && m.ItemID != *f.ItemID {
			continue
		}
		if f.SourceType != "" && m.SourceType != f.SourceType {
			continue
		}
		if f.SourceID != nil && m.SourceID != *f.SourceID {
			continue
		}
		if !f.Range.Contains(m.OccurredAt) {
			continue
		}
		out = append(out, m)
	}
	inventory.SortMovements(out)
	if f.Page > 0 || f.PageSize > 0 {
		start := min(f.Offset(), len(out))
		end := min(start+f.Limit(), len(out))
		out = out[start:end]
	}
	return out, nil
}

func (r *memoryMovements) SumQuantity(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return inventory.BalanceAsOf(filterItem(r.rows, itemID), at), nil
}

func (r *memoryMovements) SumByItem(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range r.rows {
		out[m.ItemID] = out[m.ItemID].Add(m.Quantity)
	}
	return out, nil
}

func (r *memoryMovements) BatchBalances(ctx context.Context, itemID *uuid.UUID) ([]inventory.BatchBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type key struct {
		item  uuid.UUID
		batch string
	}
	sums := make(map[key]*inventory.BatchBalance)
	keys := make([]key, 0)
	for _, m := range r.rows {
		if m.BatchNumber == "" || (itemID != nil && m.ItemID != *itemID) {
			continue
		}
		k := key{m.ItemID, m.BatchNumber}
		b, ok := sums[k]
		if !ok {
			b = &inventory.BatchBalance{ItemID: m.ItemID, BatchNumber: m.BatchNumber, ExpiryDate: m.ExpiryDate}
			sums[k] = b
			keys = append(keys, k)
		}
		b.Quantity = b.Quantity.Add(m.Quantity)
	}
	out := make([]inventory.BatchBalance, 0, len(keys))
	for _, k := range keys {
		out = append(out, *sums[k])
	}
	return out, nil
}

func filterItem(rows []inventory.StockMovement, itemID uuid.UUID) []inventory.StockMovement {
	out := make([]inventory.StockMovement, 0)
	for _, m := range rows {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out
}

// memoryLevels is an in-memory projection with version guards
type memoryLevels struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]inventory.StockLevel
	conflicts int
}

func newMemoryLevels() *memoryLevels {
	return &memoryLevels{rows: make(map[uuid.UUID]inventory.StockLevel)}
}

func (r *memoryLevels) FindByItem(ctx context.Context, itemID uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return nil, shared.ErrConcurrencyConflict
	}
	l, ok := r.rows[itemID]
	if !ok {
		return &inventory.StockLevel{ItemID: itemID}, nil
	}
	return &l, nil
}

func (r *memoryLevels) FindAll(ctx context.Context) ([]inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockLevel, 0, len(r.rows))
	for _, l := range r.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID.String() < out[j].ItemID.String() })
	return out, nil
}

func (r *memoryLevels) Apply(ctx context.Context, level *inventory.StockLevel, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.rows[level.ItemID]
	if current.Version != level.Version {
		return shared.ErrConcurrencyConflict
	}
	level.Quantity = level.Quantity.Add(delta)
	level.Version++
	level.UpdatedAt = time.Now()
	r.rows[level.ItemID] = *level
	return nil
}

func (r *memoryLevels) Set(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.rows[itemID]
	l.ItemID = itemID
	l.Quantity = quantity
	l.Version++
	r.rows[itemID] = l
	return nil
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

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type stockFixture struct {
	movements *memoryMovements
	levels    *memoryLevels
	items     *MockItemReader
	publisher *recordingPublisher
	service   *StockLedgerService
	item      *catalog.Item
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()
	f := &stockFixture{
		movements: &memoryMovements{},
		levels:    newMemoryLevels(),
		items:     new(MockItemReader),
		publisher: &recordingPublisher{},
		item: &catalog.Item{
			ID:       uuid.New(),
			Code:     "AMOX-250",
			Name:     "Amoxicillin 250mg",
			IsActive: true,
			MinStock: decimal.NewFromInt(10),
		},
	}
	f.items.On("GetByID", mock.Anything, f.item.ID).Return(f.item, nil)
	f.service = NewStockLedgerService(
		NewNoOpTransactionScope(f.movements, f.levels),
		f.movements, f.levels, f.items,
		WithStockRetryPolicy(unitofwork.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}),
		WithStockEventPublisher(f.publisher),
		WithStockLogger(zap.NewNop()),
	)
	return f
}

func (f *stockFixture) receive(t *testing.T, qty int64) *inventory.StockMovement {
	t.Helper()
	m, err := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeIn, decimal.NewFromInt(qty),
		inventory.SourceTypeOpeningStock, uuid.New())
	require.NoError(t, err)
	require.NoError(t, f.service.Append(context.Background(), m))
	return m
}

func TestPostMovements_RejectsNegativeBalance(t *testing.T) {
	f := newStockFixture(t)
	f.receive(t, 5)

	out, err := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeOut, decimal.NewFromInt(-8),
		inventory.SourceTypeInvoice, uuid.New())
	require.NoError(t, err)

	err = f.service.Append(context.Background(), out)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	short, ok := de.Details.([]InsufficientStock)
	require.True(t, ok)
	require.Len(t, short, 1)
	assert.True(t, short[0].Balance.Equal(decimal.NewFromInt(5)))
	assert.True(t, short[0].Requested.Equal(decimal.NewFromInt(8)))

	// nothing written
	assert.Len(t, f.movements.rows, 1)
	level, _ := f.levels.FindByItem(context.Background(), f.item.ID)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(5)))
}

func TestPostMovements_ProjectionFollowsLog(t *testing.T) {
	f := newStockFixture(t)
	f.receive(t, 20)
	out, _ := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeOut, decimal.NewFromInt(-7),
		inventory.SourceTypeInvoice, uuid.New())
	require.NoError(t, f.service.Append(context.Background(), out))

	level, err := f.levels.FindByItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(13)))
	assert.Equal(t, 2, level.Version)

	drifts, err := f.service.VerifyProjection(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestStockLedgerService_AppendRetriesConflicts(t *testing.T) {
	f := newStockFixture(t)
	f.levels.conflicts = 2

	f.receive(t, 4)

	assert.Len(t, f.movements.rows, 1)
	level, _ := f.levels.FindByItem(context.Background(), f.item.ID)
	assert.True(t, level.Quantity.Equal(decimal.NewFromInt(4)))
}

func TestReverseSource_IsIdempotent(t *testing.T) {
	f := newStockFixture(t)
	f.receive(t, 10)
	sourceID := uuid.New()
	out, _ := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeOut, decimal.NewFromInt(-4),
		inventory.SourceTypeInvoice, sourceID)
	require.NoError(t, f.service.Append(context.Background(), out))

	scope := NewNoOpTransactionScope(f.movements, f.levels)
	ctx := context.Background()

	first, err := ReverseSource(ctx, scope, inventory.SourceTypeInvoice, sourceID, uuid.New(), "cancelled")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, first[0].Reversal)

	second, err := ReverseSource(ctx, scope, inventory.SourceTypeInvoice, sourceID, uuid.New(), "cancelled")
	require.NoError(t, err)
	assert.Empty(t, second)

	bal, _ := f.service.BalanceAsOf(ctx, f.item.ID, time.Time{})
	assert.True(t, bal.Equal(decimal.NewFromInt(10)))
}

func TestStockLedgerService_RecordAdjustment(t *testing.T) {
	f := newStockFixture(t)
	f.receive(t, 12)
	actor := uuid.New()

	t.Run("negative adjustment within balance", func(t *testing.T) {
		resp, err := f.service.RecordAdjustment(context.Background(), AdjustStockRequest{
			ItemID:   f.item.ID,
			Quantity: decimal.NewFromInt(-5),
			Reason:   "breakage",
			ActorID:  actor,
		})
		require.NoError(t, err)
		assert.Equal(t, string(inventory.MovementTypeAdjustment), resp.MovementType)
		assert.Equal(t, string(inventory.SourceTypeManualAdjustment), resp.SourceType)

		bal, _ := f.service.BalanceAsOf(context.Background(), f.item.ID, time.Time{})
		assert.True(t, bal.Equal(decimal.NewFromInt(7)))
		assert.Contains(t, f.publisher.types(), inventory.EventTypeStockAdjusted)
		// 7 < min 10
		assert.Contains(t, f.publisher.types(), inventory.EventTypeStockBelowThreshold)
	})

	t.Run("rejects adjustment below zero", func(t *testing.T) {
		_, err := f.service.RecordAdjustment(context.Background(), AdjustStockRequest{
			ItemID:   f.item.ID,
			Quantity: decimal.NewFromInt(-50),
			Reason:   "write off",
			ActorID:  actor,
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("rejects zero and missing reason", func(t *testing.T) {
		_, err := f.service.RecordAdjustment(context.Background(), AdjustStockRequest{
			ItemID: f.item.ID, Quantity: decimal.Zero, Reason: "x", ActorID: actor,
		})
		assert.Equal(t, shared.KindValidationFailed, shared.KindOf(err))

		_, err = f.service.RecordAdjustment(context.Background(), AdjustStockRequest{
			ItemID: f.item.ID, Quantity: decimal.NewFromInt(1), ActorID: actor,
		})
		assert.Equal(t, shared.KindValidationFailed, shared.KindOf(err))
	})
}

func TestStockLedgerService_History(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, q := range []int64{10, -3, 5} {
		typ := inventory.MovementTypeIn
		if q < 0 {
			typ = inventory.MovementTypeOut
		}
		m, err := inventory.NewStockMovement(f.item.ID, typ, decimal.NewFromInt(q), inventory.SourceTypeInvoice, uuid.New())
		require.NoError(t, err)
		m.WithOccurredAt(base.AddDate(0, 0, i))
		require.NoError(t, f.service.Append(ctx, m))
	}

	h, err := f.service.History(ctx, f.item.ID, shared.DateRange{From: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.True(t, h.Opening.Equal(decimal.NewFromInt(10)))
	require.Len(t, h.Lines, 2)
	assert.True(t, h.Lines[0].Balance.Equal(decimal.NewFromInt(7)))
	assert.True(t, h.Closing.Equal(decimal.NewFromInt(12)))

	bal, err := f.service.BalanceAsOf(ctx, f.item.ID, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(7)))
}

func TestStockLedgerService_HistorySpansEveryPage(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	const n = historyPageSize*2 + 1
	batch := make([]*inventory.StockMovement, 0, n)
	for i := 0; i < n; i++ {
		m, err := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeAdjustment, decimal.NewFromInt(1),
			inventory.SourceTypeManualAdjustment, uuid.New())
		require.NoError(t, err)
		m.WithOccurredAt(base.Add(time.Duration(i) * time.Minute))
		batch = append(batch, m)
	}
	require.NoError(t, f.service.Append(ctx, batch...))

	h, err := f.service.History(ctx, f.item.ID, shared.DateRange{})
	require.NoError(t, err)
	assert.Len(t, h.Lines, n)

	bal, err := f.service.BalanceAsOf(ctx, f.item.ID, base.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.True(t, h.Closing.Equal(bal), "closing %s, balance %s", h.Closing, bal)
}

func TestStockLedgerService_LowStockAndExpiry(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	other := catalog.Item{ID: uuid.New(), Code: "ORS", Name: "ORS sachet", IsActive: true, MinStock: decimal.NewFromInt(2)}
	f.items.On("ListActive", mock.Anything).Return([]catalog.Item{*f.item, other}, nil)

	soon := time.Now().AddDate(0, 0, 10)
	later := time.Now().AddDate(1, 0, 0)
	m1, _ := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeIn, decimal.NewFromInt(4), inventory.SourceTypeOpeningStock, uuid.New())
	m1.WithBatch("B-001", &soon)
	m2, _ := inventory.NewStockMovement(other.ID, inventory.MovementTypeIn, decimal.NewFromInt(6), inventory.SourceTypeOpeningStock, uuid.New())
	m2.WithBatch("B-900", &later)
	f.items.On("GetByID", mock.Anything, other.ID).Return(&other, nil)
	require.NoError(t, f.service.Append(ctx, m1, m2))

	alerts, err := f.service.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, f.item.ID, alerts[0].ItemID)

	expiring, err := f.service.ExpiringBatches(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "B-001", expiring[0].BatchNumber)
}

func TestStockLedgerService_RebuildProjection(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()
	f.receive(t, 9)

	// corrupt the projection
	require.NoError(t, f.levels.Set(ctx, f.item.ID, decimal.NewFromInt(100)))
	stray := uuid.New()
	require.NoError(t, f.levels.Set(ctx, stray, decimal.NewFromInt(3)))

	drifts, err := f.service.VerifyProjection(ctx)
	require.NoError(t, err)
	assert.Len(t, drifts, 2)

	n, err := f.service.RebuildProjection(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	drifts, err = f.service.VerifyProjection(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestStockLedgerService_SuggestPicks(t *testing.T) {
	f := newStockFixture(t)
	ctx := context.Background()

	soon := time.Now().AddDate(0, 0, 20)
	later := time.Now().AddDate(0, 6, 0)
	lateBatch, _ := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeIn, decimal.NewFromInt(10), inventory.SourceTypeOpeningStock, uuid.New())
	lateBatch.WithBatch("B-200", &later)
	soonBatch, _ := inventory.NewStockMovement(f.item.ID, inventory.MovementTypeIn, decimal.NewFromInt(4), inventory.SourceTypeOpeningStock, uuid.New())
	soonBatch.WithBatch("B-100", &soon)
	require.NoError(t, f.service.Append(ctx, lateBatch, soonBatch))

	plan, err := f.service.SuggestPicks(ctx, f.item.ID, decimal.NewFromInt(6))
	require.NoError(t, err)
	require.Len(t, plan.Picks, 2)
	assert.Equal(t, "B-100", plan.Picks[0].BatchNumber)
	assert.True(t, plan.Picks[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, plan.Picks[1].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, plan.Covered())

	_, err = f.service.SuggestPicks(ctx, f.item.ID, decimal.Zero)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.KindValidationFailed, de.Kind)
}
