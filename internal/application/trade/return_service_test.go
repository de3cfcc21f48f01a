package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func returnRequest(f *tradeFixture, orig *trade.Invoice, qty int64) CreateReturnRequest {
	return CreateReturnRequest{
		OriginalInvoiceID: orig.ID,
		Lines:             []ReturnLineRequest{{ItemID: f.item.ID, Quantity: decimal.NewFromInt(qty)}},
		Reason:            "damaged in transit",
		ActorID:           f.actor,
	}
}

func TestReturnService_CreateReturn(t *testing.T) {
	f := newTradeFixture()
	ctx := context.Background()
	orig := f.confirmedSale(t, 10)

	locker := new(MockLocker)
	lock := new(MockLock)
	locker.On("Obtain", mock.Anything, ReturnLockKey(orig.ID), 5*time.Second).Return(lock, nil)
	lock.On("Release", mock.Anything).Return(nil)
	f.returns.SetLocker(locker, 5*time.Second)

	f.invoices.On("FindByIDForUpdate", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return(nil, nil)
	f.sequence.On("Next", mock.Anything, "SR", mock.Anything).Return(int64(3), nil)
	f.invoices.On("Create", mock.Anything, mock.MatchedBy(func(inv *trade.Invoice) bool {
		return inv.Type == trade.InvoiceTypeReturnSales && *inv.OriginalInvoiceID == orig.ID
	})).Return(nil)
	f.levels.On("FindByItem", mock.Anything, f.item.ID).
		Return(&inventory.StockLevel{ItemID: f.item.ID, Quantity: decimal.NewFromInt(0), Version: 2}, nil)
	f.movements.On("Append", mock.Anything, mock.MatchedBy(func(ms []*inventory.StockMovement) bool {
		return len(ms) == 1 &&
			ms[0].MovementType == inventory.MovementTypeReturnFromCustomer &&
			ms[0].Quantity.Equal(decimal.NewFromInt(4)) &&
			ms[0].SourceLineID != nil
	})).Return(nil)
	f.levels.On("Apply", mock.Anything, mock.Anything, decimalEq(4)).Return(nil)
	f.ledger.On("Append", mock.Anything,
		pairMatcher(finance.ControlSales.Ref(), finance.CustomerAccount(f.customer.ID), finance.EntryKindReturn, "448"),
	).Return(nil)
	f.invoices.On("Update", mock.Anything, orig, trade.InvoiceStatusConfirmed).Return(nil)

	resp, err := f.returns.CreateReturn(ctx, returnRequest(f, orig, 4))

	require.NoError(t, err)
	assert.Equal(t, string(trade.InvoiceTypeReturnSales), resp.Type)
	assert.Equal(t, string(trade.InvoiceStatusConfirmed), resp.Status)
	assert.Contains(t, resp.InvoiceNumber, "SR-")
	assert.Equal(t, "-448", resp.Totals.GrandTotal.String())
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, orig.Lines[0].ID, *resp.Lines[0].OriginalLineID)
	assert.Equal(t, "448", orig.ReturnedAmount.String())
	assert.Equal(t, "672", orig.Outstanding().String())
	assert.Equal(t, []string{trade.EventTypeReturnInvoiceCreated}, f.publisher.types())

	lock.AssertCalled(t, "Release", mock.Anything)
	f.invoices.AssertExpectations(t)
	f.movements.AssertExpectations(t)
	f.ledger.AssertExpectations(t)
}

func TestReturnService_CreateReturn_ExceedsAvailable(t *testing.T) {
	f := newTradeFixture()
	orig := f.confirmedSale(t, 10)
	prior := buildReturn(t, orig, 7, f.actor)

	locker := new(MockLocker)
	locker.On("Obtain", mock.Anything, ReturnLockKey(orig.ID), mock.Anything).Return(nil, errors.New("lock held"))
	f.returns.SetLocker(locker, 0)

	f.invoices.On("FindByIDForUpdate", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return([]trade.Invoice{*prior}, nil)

	_, err := f.returns.CreateReturn(context.Background(), returnRequest(f, orig, 4))

	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, trade.CodeReturnLinesRejected, de.Code)
	lineErrors, ok := de.Details.([]trade.ReturnLineError)
	require.True(t, ok)
	require.Len(t, lineErrors, 1)
	assert.Equal(t, trade.ReasonExceedsAvailable, lineErrors[0].Reason)
	assert.True(t, lineErrors[0].Available.Equal(decimal.NewFromInt(3)))

	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.movements.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.True(t, orig.ReturnedAmount.IsZero())
}

func TestReturnService_CreateReturn_RejectsDraftOriginal(t *testing.T) {
	f := newTradeFixture()
	orig := f.draftSale(t, 10)
	f.invoices.On("FindByIDForUpdate", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return(nil, nil)

	_, err := f.returns.CreateReturn(context.Background(), returnRequest(f, orig, 1))

	assert.True(t, shared.IsKind(err, shared.KindInvalidState))
}

func TestReturnService_CreateReturn_KindMismatch(t *testing.T) {
	f := newTradeFixture()
	orig := f.confirmedSale(t, 10)
	f.invoices.On("FindByIDForUpdate", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return(nil, nil)

	req := returnRequest(f, orig, 1)
	req.Kind = string(trade.InvoiceTypeReturnPurchase)
	_, err := f.returns.CreateReturn(context.Background(), req)

	assert.True(t, shared.IsKind(err, shared.KindValidationFailed))
}

func TestReturnService_ValidateReturn(t *testing.T) {
	f := newTradeFixture()
	orig := f.confirmedSale(t, 10)
	prior := buildReturn(t, orig, 4, f.actor)
	f.invoices.On("FindByID", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return([]trade.Invoice{*prior}, nil)

	check, err := f.returns.ValidateReturn(context.Background(), returnRequest(f, orig, 6))

	require.NoError(t, err)
	assert.Equal(t, string(trade.InvoiceTypeReturnSales), check.Kind)
	require.Len(t, check.Lines, 1)
	assert.True(t, check.Lines[0].AlreadyReturned.Equal(decimal.NewFromInt(4)))
	assert.True(t, check.Lines[0].AvailableForReturn.IsZero())
	f.invoices.AssertNotCalled(t, "FindByIDForUpdate", mock.Anything, mock.Anything)
	f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReturnService_CancelledReturnsDoNotCount(t *testing.T) {
	f := newTradeFixture()
	orig := f.confirmedSale(t, 10)
	prior := buildReturn(t, orig, 10, f.actor)
	require.NoError(t, prior.Cancel(f.actor, "entered twice"))
	f.invoices.On("FindByID", mock.Anything, orig.ID).Return(orig, nil)
	f.invoices.On("FindReturnsOf", mock.Anything, orig.ID).Return([]trade.Invoice{*prior}, nil)

	check, err := f.returns.ValidateReturn(context.Background(), returnRequest(f, orig, 10))

	require.NoError(t, err)
	assert.True(t, check.Lines[0].AlreadyReturned.IsZero())
}

func TestNoopLocker(t *testing.T) {
	lock, err := NoopLocker{}.Obtain(context.Background(), "k", time.Second)
	require.NoError(t, err)
	assert.NoError(t, lock.Release(context.Background()))
}
