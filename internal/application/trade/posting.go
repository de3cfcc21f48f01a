package trade

import (
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// movementTypeFor maps an invoice type to the movement its lines produce
func movementTypeFor(t trade.InvoiceType) inventory.MovementType {
	switch t {
	case trade.InvoiceTypePurchase:
		return inventory.MovementTypeIn
	case trade.InvoiceTypeSales:
		return inventory.MovementTypeOut
	case trade.InvoiceTypeReturnPurchase:
		return inventory.MovementTypeReturnToSupplier
	default:
		return inventory.MovementTypeReturnFromCustomer
	}
}

// stockDelta returns the signed stock change of a line. Return lines carry
// negative quantities.
func stockDelta(t trade.InvoiceType, line trade.InvoiceLine) decimal.Decimal {
	switch t {
	case trade.InvoiceTypePurchase, trade.InvoiceTypeReturnPurchase:
		return line.Quantity
	default:
		return line.Quantity.Neg()
	}
}

// invoiceMovements builds one movement per line of a posted invoice
func invoiceMovements(inv *trade.Invoice, at time.Time) ([]*inventory.StockMovement, error) {
	movementType := movementTypeFor(inv.Type)
	out := make([]*inventory.StockMovement, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		m, err := inventory.NewStockMovement(line.ItemID, movementType, stockDelta(inv.Type, line),
			inventory.SourceTypeInvoice, inv.ID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line.LineNo, err)
		}
		m.WithSourceLineID(line.ID).
			WithBatch(line.BatchNumber, line.ExpiryDate).
			WithReason(inv.InvoiceNumber).
			WithOccurredAt(at)
		if inv.ConfirmedBy != nil {
			m.WithOperatorID(*inv.ConfirmedBy)
		}
		out = append(out, m)
	}
	return out, nil
}

// partyAccount returns the ledger account of the invoice's party
func partyAccount(inv *trade.Invoice) finance.AccountRef {
	if inv.Type.IsSalesSide() {
		return finance.CustomerAccount(inv.PartyID)
	}
	return finance.SupplierAccount(inv.PartyID)
}

// invoicePosting returns the pair for a confirmed invoice or a return.
// Purchases debit INVENTORY and credit the supplier; sales debit the
// customer and credit SALES. Returns swap the roles of their original type.
func invoicePosting(inv *trade.Invoice, at time.Time) finance.DoubleEntry {
	d := finance.DoubleEntry{
		Amount:        inv.Totals.GrandTotal.Abs(),
		Kind:          finance.EntryKindInvoice,
		ReferenceType: finance.ReferenceTypeInvoice,
		ReferenceID:   inv.ID,
		Narration:     fmt.Sprintf("%s %s", inv.Type, inv.InvoiceNumber),
		PostedAt:      at,
	}
	if inv.Type.IsSalesSide() {
		d.Debit, d.Credit = partyAccount(inv), finance.ControlSales.Ref()
	} else {
		d.Debit, d.Credit = finance.ControlInventory.Ref(), partyAccount(inv)
	}
	if inv.Type.IsReturn() {
		d = d.Swapped()
		d.Kind = finance.EntryKindReturn
	}
	return d
}

// paymentPosting returns the pair for a settlement. Customers pay into CASH;
// suppliers are paid out of CASH.
func paymentPosting(inv *trade.Invoice, amount decimal.Decimal, at time.Time) finance.DoubleEntry {
	d := finance.DoubleEntry{
		Amount:        amount,
		Kind:          finance.EntryKindPayment,
		ReferenceType: finance.ReferenceTypeInvoice,
		ReferenceID:   inv.ID,
		Narration:     fmt.Sprintf("payment %s", inv.InvoiceNumber),
		PostedAt:      at,
	}
	if inv.Type.IsSalesSide() {
		d.Debit, d.Credit = finance.ControlCash.Ref(), partyAccount(inv)
	} else {
		d.Debit, d.Credit = partyAccount(inv), finance.ControlCash.Ref()
	}
	return d
}
