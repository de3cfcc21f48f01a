package trade

import (
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// ReturnMetadata describes why goods came back
type ReturnMetadata struct {
	Reason     string    `json:"reason"`
	Notes      string    `json:"notes,omitempty"`
	ReturnedAt time.Time `json:"returned_at"`
}

// TransportInfo is dispatch metadata that may change after confirmation
type TransportInfo struct {
	Transporter   string     `json:"transporter,omitempty"`
	BiltyNumber   string     `json:"bilty_number,omitempty"`
	BiltyDate     *time.Time `json:"bilty_date,omitempty"`
	VehicleNumber string     `json:"vehicle_number,omitempty"`
}

// Invoice is the aggregate root for sales, purchase and return documents
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber     string
	Type              InvoiceType
	PartyID           uuid.UUID
	PartyType         partner.PartyType
	InvoiceDate       time.Time
	DueDate           time.Time
	Lines             []InvoiceLine
	Totals            Totals
	Status            InvoiceStatus
	PaymentStatus     PaymentStatus
	PaidAmount        decimal.Decimal
	ReturnedAmount    decimal.Decimal // absolute grand totals of non-cancelled returns
	OriginalInvoiceID *uuid.UUID
	ReturnMetadata    *ReturnMetadata
	Transport         TransportInfo
	Notes             string
	CreatedBy         *uuid.UUID
	ConfirmedBy       *uuid.UUID
	ConfirmedAt       *time.Time
	CancelledBy       *uuid.UUID
	CancelledAt       *time.Time
	CancelReason      string
}

// NewInvoice creates a draft forward invoice for a party
func NewInvoice(invoiceType InvoiceType, party *partner.Party, invoiceDate time.Time, createdBy uuid.UUID) (*Invoice, error) {
	if !invoiceType.IsValid() || invoiceType.IsReturn() {
		return nil, shared.NewDomainError("INVALID_INVOICE_TYPE", fmt.Sprintf("Cannot create a draft of type %q", invoiceType))
	}
	if party == nil || party.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party cannot be empty")
	}
	if party.Type != invoiceType.PartyType() {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE",
			fmt.Sprintf("A %s invoice requires a %s, got %s", invoiceType, invoiceType.PartyType(), party.Type))
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              invoiceType,
		PartyID:           party.ID,
		PartyType:         party.Type,
		InvoiceDate:       invoiceDate,
		DueDate:           invoiceDate.AddDate(0, 0, party.PaymentTermsDays),
		Lines:             make([]InvoiceLine, 0),
		Status:            InvoiceStatusDraft,
		PaymentStatus:     PaymentStatusPending,
		PaidAmount:        decimal.Zero,
		ReturnedAmount:    decimal.Zero,
	}
	if createdBy != uuid.Nil {
		inv.CreatedBy = &createdBy
	}
	inv.Totals = ComputeTotals(inv.Lines)

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// AssignNumber sets the document number once
func (i *Invoice) AssignNumber(number string) error {
	if i.InvoiceNumber != "" {
		return shared.NewInvalidStateError("Invoice number is already assigned")
	}
	if number == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	i.InvoiceNumber = number
	return nil
}

// AddLine appends a forward line while the invoice is a draft
func (i *Invoice) AddLine(in LineInput) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	line, err := NewInvoiceLine(i.ID, len(i.Lines)+1, in)
	if err != nil {
		return err
	}
	i.Lines = append(i.Lines, *line)
	i.recalculate()
	return nil
}

// ReplaceLines swaps every line of a draft
func (i *Invoice) ReplaceLines(inputs []LineInput) error {
	if err := i.ensureEditable(); err != nil {
		return err
	}
	lines := make([]InvoiceLine, 0, len(inputs))
	for idx, in := range inputs {
		line, err := NewInvoiceLine(i.ID, idx+1, in)
		if err != nil {
			return fmt.Errorf("line %d: %w", idx+1, err)
		}
		lines = append(lines, *line)
	}
	i.Lines = lines
	i.recalculate()
	return nil
}

func (i *Invoice) ensureEditable() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot modify lines of a %s invoice", i.Status))
	}
	if i.Type.IsReturn() {
		return shared.NewInvalidStateError("Return invoice lines are derived from the original invoice")
	}
	return nil
}

// recalculate recomputes forward line amounts and the totals
func (i *Invoice) recalculate() {
	if !i.Type.IsReturn() {
		for idx := range i.Lines {
			i.Lines[idx].Compute()
		}
	}
	i.Totals = ComputeTotals(i.Lines)
	i.Touch()
}

// Confirm moves a draft to confirmed. Stock and ledger effects are applied by
// the caller in the same unit of work.
func (i *Invoice) Confirm(actorID uuid.UUID) error {
	if !i.Status.CanTransitionTo(InvoiceStatusConfirmed) {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot confirm invoice in %s status", i.Status))
	}
	if len(i.Lines) == 0 {
		return shared.NewDomainError("NO_LINES", "Cannot confirm an invoice without lines")
	}
	i.recalculate()
	if !i.Totals.GrandTotal.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Invoice grand total must be positive")
	}

	now := time.Now()
	i.Status = InvoiceStatusConfirmed
	i.PaymentStatus = PaymentStatusPending
	i.ConfirmedAt = &now
	i.setActor(&i.ConfirmedBy, actorID)
	i.UpdatedAt = now

	i.AddDomainEvent(NewInvoiceConfirmedEvent(i))
	return nil
}

// Cancel moves a draft or confirmed invoice to cancelled. Settled or
// returned invoices cannot be cancelled.
func (i *Invoice) Cancel(actorID uuid.UUID, reason string) error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewInvalidStateError("Invoice is already cancelled")
	}
	if !i.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot cancel invoice in %s status", i.Status))
	}
	if i.PaymentStatus != PaymentStatusPending || i.PaidAmount.IsPositive() {
		return shared.NewInvalidStateError("Cannot cancel an invoice with recorded payments")
	}
	if i.ReturnedAmount.IsPositive() {
		return shared.NewInvalidStateError("Cannot cancel an invoice with active returns")
	}

	wasPosted := i.Status.IsPosted()
	now := time.Now()
	i.Status = InvoiceStatusCancelled
	i.CancelledAt = &now
	i.CancelReason = reason
	i.setActor(&i.CancelledBy, actorID)
	i.UpdatedAt = now

	i.AddDomainEvent(NewInvoiceCancelledEvent(i, wasPosted))
	return nil
}

// Outstanding returns the amount still to be settled
func (i *Invoice) Outstanding() decimal.Decimal {
	out := i.Totals.GrandTotal.Sub(i.PaidAmount).Sub(i.ReturnedAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// RecordPayment registers a settlement against a confirmed forward invoice
func (i *Invoice) RecordPayment(amount decimal.Decimal, actorID uuid.UUID) error {
	if i.Type.IsReturn() {
		return shared.NewDomainError("INVALID_INVOICE_TYPE", "Payments cannot be recorded against return invoices")
	}
	if i.Status != InvoiceStatusConfirmed {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot record payment for invoice in %s status", i.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	outstanding := i.Outstanding()
	if amount.GreaterThan(outstanding) {
		return shared.NewDomainError("INVALID_AMOUNT",
			fmt.Sprintf("Payment %s exceeds outstanding %s", amount.StringFixed(2), outstanding.StringFixed(2)))
	}

	i.PaidAmount = i.PaidAmount.Add(amount)
	i.PaymentStatus = PaymentStatusPartial
	if i.Outstanding().IsZero() {
		i.PaymentStatus = PaymentStatusPaid
		i.Status = InvoiceStatusPaid
	}
	i.Touch()

	i.AddDomainEvent(NewInvoicePaymentRecordedEvent(i, amount, actorID))
	return nil
}

// ApplyReturn records a new return against this original invoice
func (i *Invoice) ApplyReturn(amount decimal.Decimal) error {
	if !i.Status.IsPosted() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot return against invoice in %s status", i.Status))
	}
	i.ReturnedAmount = i.ReturnedAmount.Add(amount.Abs())
	i.Touch()
	return nil
}

// RevertReturn releases a cancelled return's amount. A paid invoice that owes
// money again reopens as confirmed with a partial payment status.
func (i *Invoice) RevertReturn(amount decimal.Decimal) {
	i.ReturnedAmount = i.ReturnedAmount.Sub(amount.Abs())
	if i.ReturnedAmount.IsNegative() {
		i.ReturnedAmount = decimal.Zero
	}
	if i.Status == InvoiceStatusPaid && i.Outstanding().IsPositive() {
		i.Status = InvoiceStatusConfirmed
		i.PaymentStatus = PaymentStatusPartial
	}
	i.Touch()
}

// UpdateTransport replaces dispatch metadata; lines are never touched
func (i *Invoice) UpdateTransport(info TransportInfo) error {
	if i.Status == InvoiceStatusCancelled {
		return shared.NewInvalidStateError("Cannot update transport of a cancelled invoice")
	}
	i.Transport = info
	i.Touch()
	return nil
}

// LineByID returns the line with the given id, or nil
func (i *Invoice) LineByID(id uuid.UUID) *InvoiceLine {
	for idx := range i.Lines {
		if i.Lines[idx].ID == id {
			return &i.Lines[idx]
		}
	}
	return nil
}

// IsDraft returns true if the invoice is a draft
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// IsCancelled returns true if the invoice is cancelled
func (i *Invoice) IsCancelled() bool {
	return i.Status == InvoiceStatusCancelled
}

func (i *Invoice) setActor(field **uuid.UUID, actorID uuid.UUID) {
	if actorID != uuid.Nil {
		id := actorID
		*field = &id
	}
}
