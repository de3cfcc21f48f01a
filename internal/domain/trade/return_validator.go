package trade

import (
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Error code for rejected return lines
const CodeReturnLinesRejected = "RETURN_LINES_REJECTED"

// ReturnLineRequest asks to return a positive quantity of an item
type ReturnLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReturnLineError explains why one requested line was rejected
type ReturnLineError struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
	Reason    string          `json:"reason"`
}

// Reasons reported in ReturnLineError
const (
	ReasonItemNotOnInvoice    = "item not on original invoice"
	ReasonQuantityNotPositive = "quantity must be positive"
	ReasonExceedsAvailable    = "quantity exceeds available for return"
)

// ReturnedSoFar is what non-cancelled returns already took from one
// original line, as absolute values
type ReturnedSoFar struct {
	Quantity decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	Tax      decimal.Decimal
}

// LineAllocation is the part of a validated return drawn from one original line
type LineAllocation struct {
	OriginalLine InvoiceLine
	Quantity     decimal.Decimal // positive
	Before       ReturnedSoFar
}

// ValidatedReturnLine is an accepted return quantity for one item
type ValidatedReturnLine struct {
	ItemID             uuid.UUID        `json:"item_id"`
	Quantity           decimal.Decimal  `json:"quantity"`
	OriginalQuantity   decimal.Decimal  `json:"original_quantity"`
	AlreadyReturned    decimal.Decimal  `json:"already_returned"`
	AvailableForReturn decimal.Decimal  `json:"available_for_return"` // after this return
	Allocations        []LineAllocation `json:"-"`
}

// ReturnValidator checks proposed returns against an original invoice and the
// returns already recorded against it
type ReturnValidator struct{}

// NewReturnValidator creates a validator
func NewReturnValidator() *ReturnValidator {
	return &ReturnValidator{}
}

// Validate accepts all requested lines or none. Every failing line is
// reported in the error details as []ReturnLineError.
func (v *ReturnValidator) Validate(
	kind InvoiceType,
	original *Invoice,
	priorReturns []Invoice,
	requested []ReturnLineRequest,
) ([]ValidatedReturnLine, error) {
	if original == nil {
		return nil, shared.NewNotFoundError("original invoice", "")
	}
	if !kind.IsReturn() {
		return nil, shared.NewValidationError(fmt.Sprintf("%q is not a return invoice type", kind))
	}
	if original.Type != kind.OriginalType() {
		return nil, shared.NewValidationError(
			fmt.Sprintf("A %s must reference a %s invoice, got %s", kind, kind.OriginalType(), original.Type))
	}
	if !original.Status.IsPosted() {
		return nil, shared.NewInvalidStateError(
			fmt.Sprintf("Cannot return against invoice %s in %s status", original.InvoiceNumber, original.Status))
	}
	if len(requested) == 0 {
		return nil, shared.NewValidationError("Return must contain at least one line")
	}

	byLine := returnedByLine(original.ID, priorReturns)

	originalQty := make(map[uuid.UUID]decimal.Decimal)
	alreadyReturned := make(map[uuid.UUID]decimal.Decimal)
	linesOfItem := make(map[uuid.UUID][]InvoiceLine)
	for _, l := range original.Lines {
		originalQty[l.ItemID] = originalQty[l.ItemID].Add(l.Quantity.Abs())
		alreadyReturned[l.ItemID] = alreadyReturned[l.ItemID].Add(byLine[l.ID].Quantity)
		linesOfItem[l.ItemID] = append(linesOfItem[l.ItemID], l)
	}

	var lineErrors []ReturnLineError
	order := make([]uuid.UUID, 0, len(requested))
	wanted := make(map[uuid.UUID]decimal.Decimal)
	for _, r := range requested {
		if !r.Quantity.IsPositive() {
			lineErrors = append(lineErrors, ReturnLineError{
				ItemID: r.ItemID, Requested: r.Quantity, Reason: ReasonQuantityNotPositive,
			})
			continue
		}
		if _, ok := originalQty[r.ItemID]; !ok {
			lineErrors = append(lineErrors, ReturnLineError{
				ItemID: r.ItemID, Requested: r.Quantity, Available: decimal.Zero, Reason: ReasonItemNotOnInvoice,
			})
			continue
		}
		if _, seen := wanted[r.ItemID]; !seen {
			order = append(order, r.ItemID)
		}
		wanted[r.ItemID] = wanted[r.ItemID].Add(r.Quantity)
	}

	result := make([]ValidatedReturnLine, 0, len(order))
	for _, itemID := range order {
		qty := wanted[itemID]
		available := originalQty[itemID].Sub(alreadyReturned[itemID])
		if qty.GreaterThan(available) {
			lineErrors = append(lineErrors, ReturnLineError{
				ItemID: itemID, Requested: qty, Available: available, Reason: ReasonExceedsAvailable,
			})
			continue
		}
		result = append(result, ValidatedReturnLine{
			ItemID:             itemID,
			Quantity:           qty,
			OriginalQuantity:   originalQty[itemID],
			AlreadyReturned:    alreadyReturned[itemID],
			AvailableForReturn: available.Sub(qty),
			Allocations:        allocate(linesOfItem[itemID], byLine, qty),
		})
	}

	if len(lineErrors) > 0 {
		return nil, shared.NewKindError(shared.KindValidationFailed, CodeReturnLinesRejected,
			fmt.Sprintf("%d return line(s) rejected", len(lineErrors))).WithDetails(lineErrors)
	}
	return result, nil
}

// returnedByLine sums non-cancelled return lines per original line
func returnedByLine(originalID uuid.UUID, returns []Invoice) map[uuid.UUID]ReturnedSoFar {
	out := make(map[uuid.UUID]ReturnedSoFar)
	for _, r := range returns {
		if r.IsCancelled() || r.OriginalInvoiceID == nil || *r.OriginalInvoiceID != originalID {
			continue
		}
		for _, l := range r.Lines {
			if l.OriginalLineID == nil {
				continue
			}
			s := out[*l.OriginalLineID]
			s.Quantity = s.Quantity.Add(l.Quantity.Abs())
			s.Discount = s.Discount.Add(l.Discount.Abs())
			s.Taxable = s.Taxable.Add(l.TaxableAmount.Abs())
			s.Tax = s.Tax.Add(l.TaxAmount.Abs())
			out[*l.OriginalLineID] = s
		}
	}
	return out
}

// allocate draws qty from the item's original lines in line order
func allocate(lines []InvoiceLine, byLine map[uuid.UUID]ReturnedSoFar, qty decimal.Decimal) []LineAllocation {
	out := make([]LineAllocation, 0, 1)
	remaining := qty
	for _, l := range lines {
		if !remaining.IsPositive() {
			break
		}
		before := byLine[l.ID]
		free := l.Quantity.Abs().Sub(before.Quantity)
		if !free.IsPositive() {
			continue
		}
		take := decimal.Min(free, remaining)
		out = append(out, LineAllocation{OriginalLine: l, Quantity: take, Before: before})
		remaining = remaining.Sub(take)
	}
	return out
}

// BuildReturnLine derives a return line from its allocation. Amounts are
// the proportional share of the original line; the slice that completes the
// line takes the exact remainder so a fully returned line nets to zero.
func BuildReturnLine(returnID uuid.UUID, lineNo int, a LineAllocation) InvoiceLine {
	orig := a.OriginalLine
	whole := orig.Quantity.Abs()
	share := func(total, taken decimal.Decimal) decimal.Decimal {
		return valueobject.ProrateShare(total.Abs(), whole, a.Before.Quantity, taken, a.Quantity)
	}
	discount := share(orig.Discount, a.Before.Discount)
	taxable := share(orig.TaxableAmount, a.Before.Taxable)
	tax := share(orig.TaxAmount, a.Before.Tax)

	origID := orig.ID
	return InvoiceLine{
		ID:             uuid.New(),
		InvoiceID:      returnID,
		LineNo:         lineNo,
		ItemID:         orig.ItemID,
		ItemCode:       orig.ItemCode,
		ItemName:       orig.ItemName,
		Quantity:       a.Quantity.Neg(),
		UnitPrice:      orig.UnitPrice,
		Discount:       discount.Neg(),
		TaxRate:        orig.TaxRate,
		TaxableAmount:  taxable.Neg(),
		TaxAmount:      tax.Neg(),
		LineTotal:      taxable.Add(tax).Neg(),
		BatchNumber:    orig.BatchNumber,
		ExpiryDate:     orig.ExpiryDate,
		OriginalLineID: &origID,
	}
}

// NewReturnInvoice creates a confirmed return against original from validated
// lines. The caller assigns the number and applies stock and ledger effects.
func NewReturnInvoice(
	original *Invoice,
	validated []ValidatedReturnLine,
	meta ReturnMetadata,
	actorID uuid.UUID,
) (*Invoice, error) {
	if original == nil {
		return nil, shared.NewNotFoundError("original invoice", "")
	}
	kind := original.Type.ReturnType()
	if kind == "" {
		return nil, shared.NewValidationError("Cannot return against a return invoice")
	}
	if len(validated) == 0 {
		return nil, shared.NewValidationError("Return must contain at least one line")
	}

	now := time.Now()
	if meta.ReturnedAt.IsZero() {
		meta.ReturnedAt = now
	}
	origID := original.ID
	ret := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              kind,
		PartyID:           original.PartyID,
		PartyType:         original.PartyType,
		InvoiceDate:       now,
		DueDate:           now,
		Status:            InvoiceStatusConfirmed,
		PaymentStatus:     PaymentStatusPending,
		PaidAmount:        decimal.Zero,
		ReturnedAmount:    decimal.Zero,
		OriginalInvoiceID: &origID,
		ReturnMetadata:    &meta,
		ConfirmedAt:       &now,
	}
	ret.setActor(&ret.CreatedBy, actorID)
	ret.setActor(&ret.ConfirmedBy, actorID)

	lines := make([]InvoiceLine, 0, len(validated))
	for _, v := range validated {
		for _, a := range v.Allocations {
			lines = append(lines, BuildReturnLine(ret.ID, len(lines)+1, a))
		}
	}
	ret.Lines = lines
	ret.Totals = ComputeTotals(lines)

	ret.AddDomainEvent(NewReturnInvoiceCreatedEvent(ret, original))
	return ret, nil
}
