package trade

import (
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newCustomer() *partner.Party {
	return &partner.Party{ID: uuid.New(), Name: "Care Pharmacy", Type: partner.PartyTypeCustomer, IsActive: true, PaymentTermsDays: 30}
}

func newSupplier() *partner.Party {
	return &partner.Party{ID: uuid.New(), Name: "Medi Labs", Type: partner.PartyTypeSupplier, IsActive: true}
}

func newDraft(t *testing.T, typ InvoiceType) *Invoice {
	t.Helper()
	party := newCustomer()
	if typ == InvoiceTypePurchase {
		party = newSupplier()
	}
	inv, err := NewInvoice(typ, party, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), uuid.New())
	require.NoError(t, err)
	return inv
}

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to InvoiceStatus
		expected bool
	}{
		{InvoiceStatusDraft, InvoiceStatusConfirmed, true},
		{InvoiceStatusDraft, InvoiceStatusCancelled, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusConfirmed, InvoiceStatusPaid, true},
		{InvoiceStatusConfirmed, InvoiceStatusCancelled, true},
		{InvoiceStatusConfirmed, InvoiceStatusDraft, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusCancelled, InvoiceStatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInvoiceType_Helpers(t *testing.T) {
	assert.Equal(t, "SI", InvoiceTypeSales.NumberPrefix())
	assert.Equal(t, "PR", InvoiceTypeReturnPurchase.NumberPrefix())
	assert.Equal(t, InvoiceTypeReturnSales, InvoiceTypeSales.ReturnType())
	assert.Equal(t, InvoiceTypePurchase, InvoiceTypeReturnPurchase.OriginalType())
	assert.Equal(t, partner.PartyTypeCustomer, InvoiceTypeReturnSales.PartyType())
	assert.Equal(t, partner.PartyTypeSupplier, InvoiceTypePurchase.PartyType())
	assert.Equal(t, "SI-2026-00042", FormatInvoiceNumber("SI", 2026, 42, 5))
	assert.Equal(t, "PI-2026-123456", FormatInvoiceNumber("PI", 2026, 123456, 5))
}

func TestNewInvoice(t *testing.T) {
	t.Run("due date from payment terms", func(t *testing.T) {
		inv := newDraft(t, InvoiceTypeSales)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
		assert.Equal(t, PaymentStatusPending, inv.PaymentStatus)
		assert.Equal(t, inv.InvoiceDate.AddDate(0, 0, 30), inv.DueDate)
		assert.Equal(t, 1, inv.Version)
		assert.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("rejects party type mismatch", func(t *testing.T) {
		_, err := NewInvoice(InvoiceTypeSales, newSupplier(), time.Now(), uuid.Nil)
		require.Error(t, err)
		assert.Equal(t, shared.KindValidationFailed, shared.KindOf(err))
	})

	t.Run("rejects return types", func(t *testing.T) {
		_, err := NewInvoice(InvoiceTypeReturnSales, newCustomer(), time.Now(), uuid.Nil)
		assert.Error(t, err)
	})
}

func TestInvoice_LineComputation(t *testing.T) {
	inv := newDraft(t, InvoiceTypeSales)
	itemA, itemB := uuid.New(), uuid.New()

	require.NoError(t, inv.AddLine(LineInput{ItemID: itemA, Quantity: dec("10"), UnitPrice: dec("100"), Discount: dec("50"), TaxRate: valueobject.TaxRate18}))
	require.NoError(t, inv.AddLine(LineInput{ItemID: itemB, Quantity: dec("3"), UnitPrice: dec("33.33"), TaxRate: valueobject.TaxRate5}))
	require.NoError(t, inv.AddLine(LineInput{ItemID: itemA, Quantity: dec("1"), UnitPrice: dec("100"), TaxRate: valueobject.TaxRate18}))

	l1 := inv.Lines[0]
	assert.Equal(t, 1, l1.LineNo)
	assert.True(t, l1.TaxableAmount.Equal(dec("950")))
	assert.True(t, l1.TaxAmount.Equal(dec("171")))
	assert.True(t, l1.LineTotal.Equal(dec("1121")))

	l2 := inv.Lines[1]
	assert.True(t, l2.TaxableAmount.Equal(dec("99.99")))
	assert.True(t, l2.TaxAmount.Equal(dec("5")))

	tot := inv.Totals
	assert.True(t, tot.Subtotal.Equal(dec("1199.99")))
	assert.True(t, tot.TotalDiscount.Equal(dec("50")))
	assert.True(t, tot.TaxableAmount.Equal(dec("1149.99")))
	assert.True(t, tot.TotalTax.Equal(dec("194")))
	assert.True(t, tot.GrandTotal.Equal(dec("1343.99")))
	require.Len(t, tot.TaxBreakdown, 2)
	assert.Equal(t, valueobject.TaxRate5, tot.TaxBreakdown[0].Rate)
	assert.Equal(t, valueobject.TaxRate18, tot.TaxBreakdown[1].Rate)
	assert.True(t, tot.TaxBreakdown[1].TaxableAmount.Equal(dec("1050")))

	qty := QuantityByItem(inv.Lines)
	assert.True(t, qty[itemA].Equal(dec("11")))
}

func TestInvoice_AddLineValidation(t *testing.T) {
	inv := newDraft(t, InvoiceTypeSales)
	item := uuid.New()

	tests := []struct {
		name string
		in   LineInput
	}{
		{"zero quantity", LineInput{ItemID: item, Quantity: dec("0"), UnitPrice: dec("1")}},
		{"negative quantity", LineInput{ItemID: item, Quantity: dec("-1"), UnitPrice: dec("1")}},
		{"negative price", LineInput{ItemID: item, Quantity: dec("1"), UnitPrice: dec("-1")}},
		{"discount above amount", LineInput{ItemID: item, Quantity: dec("1"), UnitPrice: dec("10"), Discount: dec("11")}},
		{"bad tax bucket", LineInput{ItemID: item, Quantity: dec("1"), UnitPrice: dec("10"), TaxRate: 7}},
		{"missing item", LineInput{Quantity: dec("1"), UnitPrice: dec("10")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inv.AddLine(tt.in)
			require.Error(t, err)
			assert.Equal(t, shared.KindValidationFailed, shared.KindOf(err))
		})
	}
	assert.Empty(t, inv.Lines)
}

func TestInvoice_Confirm(t *testing.T) {
	t.Run("confirms draft with lines", func(t *testing.T) {
		inv := newDraft(t, InvoiceTypePurchase)
		require.NoError(t, inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("100"), UnitPrice: dec("10"), TaxRate: valueobject.TaxRate18}))
		actor := uuid.New()

		require.NoError(t, inv.Confirm(actor))
		assert.Equal(t, InvoiceStatusConfirmed, inv.Status)
		assert.Equal(t, &actor, inv.ConfirmedBy)
		assert.NotNil(t, inv.ConfirmedAt)
		assert.True(t, inv.Totals.GrandTotal.Equal(dec("1180")))

		err := inv.Confirm(actor)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		err = inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("1")})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejects empty invoice", func(t *testing.T) {
		inv := newDraft(t, InvoiceTypeSales)
		err := inv.Confirm(uuid.New())
		require.Error(t, err)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})
}

func TestInvoice_Cancel(t *testing.T) {
	confirmed := func(t *testing.T) *Invoice {
		inv := newDraft(t, InvoiceTypeSales)
		require.NoError(t, inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("2"), UnitPrice: dec("50")}))
		require.NoError(t, inv.Confirm(uuid.New()))
		return inv
	}

	t.Run("draft", func(t *testing.T) {
		inv := newDraft(t, InvoiceTypeSales)
		require.NoError(t, inv.Cancel(uuid.New(), "duplicate"))
		assert.True(t, inv.IsCancelled())
		ev := inv.GetDomainEvents()[len(inv.GetDomainEvents())-1].(*InvoiceCancelledEvent)
		assert.False(t, ev.WasPosted)
	})

	t.Run("confirmed", func(t *testing.T) {
		inv := confirmed(t)
		require.NoError(t, inv.Cancel(uuid.New(), "customer refused"))
		assert.Equal(t, "customer refused", inv.CancelReason)
		ev := inv.GetDomainEvents()[len(inv.GetDomainEvents())-1].(*InvoiceCancelledEvent)
		assert.True(t, ev.WasPosted)

		err := inv.Cancel(uuid.New(), "again")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("partially paid", func(t *testing.T) {
		inv := confirmed(t)
		require.NoError(t, inv.RecordPayment(dec("10"), uuid.New()))
		assert.ErrorIs(t, inv.Cancel(uuid.New(), "x"), shared.ErrInvalidState)
	})

	t.Run("with returns", func(t *testing.T) {
		inv := confirmed(t)
		require.NoError(t, inv.ApplyReturn(dec("-50")))
		assert.ErrorIs(t, inv.Cancel(uuid.New(), "x"), shared.ErrInvalidState)

		inv.RevertReturn(dec("-50"))
		assert.True(t, inv.ReturnedAmount.IsZero())
		assert.NoError(t, inv.Cancel(uuid.New(), "x"))
	})
}

func TestInvoice_RevertReturnReopensSettledInvoice(t *testing.T) {
	inv := newDraft(t, InvoiceTypeSales)
	require.NoError(t, inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("10"), UnitPrice: dec("100")}))
	require.NoError(t, inv.Confirm(uuid.New()))

	require.NoError(t, inv.ApplyReturn(dec("-200")))
	require.NoError(t, inv.RecordPayment(inv.Outstanding(), uuid.New()))
	require.Equal(t, InvoiceStatusPaid, inv.Status)

	inv.RevertReturn(dec("-200"))

	assert.Equal(t, InvoiceStatusConfirmed, inv.Status)
	assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
	assert.True(t, inv.Outstanding().Equal(dec("200")), "outstanding %s", inv.Outstanding())

	require.NoError(t, inv.RecordPayment(dec("200"), uuid.New()))
	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.Outstanding().IsZero())
}

func TestInvoice_RecordPayment(t *testing.T) {
	inv := newDraft(t, InvoiceTypeSales)
	require.NoError(t, inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("1000")}))

	err := inv.RecordPayment(dec("1"), uuid.New())
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	require.NoError(t, inv.Confirm(uuid.New()))

	assert.Error(t, inv.RecordPayment(dec("0"), uuid.New()))
	assert.Error(t, inv.RecordPayment(dec("1000.01"), uuid.New()))

	require.NoError(t, inv.RecordPayment(dec("400"), uuid.New()))
	assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
	assert.Equal(t, InvoiceStatusConfirmed, inv.Status)
	assert.True(t, inv.Outstanding().Equal(dec("600")))

	require.NoError(t, inv.ApplyReturn(dec("100")))
	assert.True(t, inv.Outstanding().Equal(dec("500")))

	require.NoError(t, inv.RecordPayment(dec("500"), uuid.New()))
	assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
	assert.Equal(t, InvoiceStatusPaid, inv.Status)

	assert.ErrorIs(t, inv.RecordPayment(dec("1"), uuid.New()), shared.ErrInvalidState)
}

func TestInvoice_UpdateTransport(t *testing.T) {
	inv := newDraft(t, InvoiceTypeSales)
	require.NoError(t, inv.AddLine(LineInput{ItemID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("10")}))
	require.NoError(t, inv.Confirm(uuid.New()))
	linesBefore := inv.Lines

	require.NoError(t, inv.UpdateTransport(TransportInfo{Transporter: "Fast Cargo", BiltyNumber: "B-77"}))
	assert.Equal(t, "B-77", inv.Transport.BiltyNumber)
	assert.Equal(t, linesBefore, inv.Lines)

	require.NoError(t, inv.Cancel(uuid.New(), "x"))
	assert.ErrorIs(t, inv.UpdateTransport(TransportInfo{}), shared.ErrInvalidState)
}
