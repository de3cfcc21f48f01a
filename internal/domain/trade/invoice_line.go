package trade

import (
	"sort"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLine is one item row of an invoice. Quantity and all amounts are
// positive on forward invoices and negative on returns.
type InvoiceLine struct {
	ID             uuid.UUID
	InvoiceID      uuid.UUID
	LineNo         int
	ItemID         uuid.UUID
	ItemCode       string
	ItemName       string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal // never negative
	Discount       decimal.Decimal // amount, same sign as quantity
	TaxRate        valueobject.TaxRate
	TaxableAmount  decimal.Decimal
	TaxAmount      decimal.Decimal
	LineTotal      decimal.Decimal
	BatchNumber    string
	ExpiryDate     *time.Time
	OriginalLineID *uuid.UUID // return lines only
}

// LineInput carries the caller-provided fields of a forward line
type LineInput struct {
	ItemID      uuid.UUID
	ItemCode    string
	ItemName    string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxRate     valueobject.TaxRate
	BatchNumber string
	ExpiryDate  *time.Time
}

// NewInvoiceLine creates a forward line and computes its amounts
func NewInvoiceLine(invoiceID uuid.UUID, lineNo int, in LineInput) (*InvoiceLine, error) {
	if in.ItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if in.Discount.GreaterThan(in.Quantity.Mul(in.UnitPrice)) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed line amount")
	}
	if !in.TaxRate.IsValid() {
		return nil, shared.NewDomainError("INVALID_TAX_RATE", "Tax rate "+in.TaxRate.String()+" is not a GST bucket")
	}

	line := &InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		LineNo:      lineNo,
		ItemID:      in.ItemID,
		ItemCode:    in.ItemCode,
		ItemName:    in.ItemName,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Discount:    valueobject.Round2(in.Discount),
		TaxRate:     in.TaxRate,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
	}
	line.Compute()
	return line, nil
}

// Compute derives taxable, tax and total from quantity, price and discount
func (l *InvoiceLine) Compute() {
	l.TaxableAmount = valueobject.Round2(l.Quantity.Mul(l.UnitPrice)).Sub(l.Discount)
	l.TaxAmount = l.TaxRate.TaxOn(l.TaxableAmount)
	l.LineTotal = l.TaxableAmount.Add(l.TaxAmount)
}

// GrossAmount returns the line amount before discount
func (l *InvoiceLine) GrossAmount() decimal.Decimal {
	return l.TaxableAmount.Add(l.Discount)
}

// IsReturnLine returns true when the line reverses an original line
func (l *InvoiceLine) IsReturnLine() bool {
	return l.OriginalLineID != nil
}

// TaxBucketTotal aggregates taxable amount and tax for one rate
type TaxBucketTotal struct {
	Rate          valueobject.TaxRate `json:"rate"`
	TaxableAmount decimal.Decimal     `json:"taxable_amount"`
	TaxAmount     decimal.Decimal     `json:"tax_amount"`
}

// Totals are the invoice-level sums of its lines
type Totals struct {
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TotalDiscount decimal.Decimal  `json:"total_discount"`
	TaxableAmount decimal.Decimal  `json:"taxable_amount"`
	TotalTax      decimal.Decimal  `json:"total_tax"`
	TaxBreakdown  []TaxBucketTotal `json:"tax_breakdown"`
	GrandTotal    decimal.Decimal  `json:"grand_total"`
}

// ComputeTotals sums lines into invoice totals with a per-rate breakdown
// sorted by rate
func ComputeTotals(lines []InvoiceLine) Totals {
	t := Totals{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TaxableAmount: decimal.Zero,
		TotalTax:      decimal.Zero,
		TaxBreakdown:  []TaxBucketTotal{},
	}
	buckets := make(map[valueobject.TaxRate]*TaxBucketTotal)
	for i := range lines {
		l := &lines[i]
		t.Subtotal = t.Subtotal.Add(l.GrossAmount())
		t.TotalDiscount = t.TotalDiscount.Add(l.Discount)
		t.TaxableAmount = t.TaxableAmount.Add(l.TaxableAmount)
		t.TotalTax = t.TotalTax.Add(l.TaxAmount)

		b, ok := buckets[l.TaxRate]
		if !ok {
			b = &TaxBucketTotal{Rate: l.TaxRate, TaxableAmount: decimal.Zero, TaxAmount: decimal.Zero}
			buckets[l.TaxRate] = b
		}
		b.TaxableAmount = b.TaxableAmount.Add(l.TaxableAmount)
		b.TaxAmount = b.TaxAmount.Add(l.TaxAmount)
	}
	for _, b := range buckets {
		t.TaxBreakdown = append(t.TaxBreakdown, *b)
	}
	sort.Slice(t.TaxBreakdown, func(i, j int) bool {
		return t.TaxBreakdown[i].Rate < t.TaxBreakdown[j].Rate
	})
	t.GrandTotal = t.TaxableAmount.Add(t.TotalTax)
	return t
}

// QuantityByItem sums line quantities per item
func QuantityByItem(lines []InvoiceLine) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		out[l.ItemID] = out[l.ItemID].Add(l.Quantity)
	}
	return out
}
