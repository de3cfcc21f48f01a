package trade

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeInvoiceCreated         = "InvoiceCreated"
	EventTypeInvoiceConfirmed       = "InvoiceConfirmed"
	EventTypeInvoiceCancelled       = "InvoiceCancelled"
	EventTypeInvoicePaymentRecorded = "InvoicePaymentRecorded"
	EventTypeReturnInvoiceCreated   = "ReturnInvoiceCreated"
)

// InvoiceCreatedEvent is raised when a draft is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Type    InvoiceType `json:"type"`
	PartyID uuid.UUID   `json:"party_id"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		Type:            inv.Type,
		PartyID:         inv.PartyID,
	}
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// InvoiceConfirmedEvent is raised when an invoice is confirmed
type InvoiceConfirmedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Type          InvoiceType     `json:"type"`
	PartyID       uuid.UUID       `json:"party_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// NewInvoiceConfirmedEvent creates a new InvoiceConfirmedEvent
func NewInvoiceConfirmedEvent(inv *Invoice) *InvoiceConfirmedEvent {
	return &InvoiceConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceConfirmed, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Type:            inv.Type,
		PartyID:         inv.PartyID,
		GrandTotal:      inv.Totals.GrandTotal,
	}
}

// EventType returns the event type name
func (e *InvoiceConfirmedEvent) EventType() string {
	return EventTypeInvoiceConfirmed
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string      `json:"invoice_number"`
	Type          InvoiceType `json:"type"`
	WasPosted     bool        `json:"was_posted"` // stock and ledger effects were reversed
	Reason        string      `json:"reason,omitempty"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, wasPosted bool) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Type:            inv.Type,
		WasPosted:       wasPosted,
		Reason:          inv.CancelReason,
	}
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return EventTypeInvoiceCancelled
}

// InvoicePaymentRecordedEvent is raised for each settlement
type InvoicePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	RecordedBy    uuid.UUID       `json:"recorded_by"`
}

// NewInvoicePaymentRecordedEvent creates a new InvoicePaymentRecordedEvent
func NewInvoicePaymentRecordedEvent(inv *Invoice, amount decimal.Decimal, actorID uuid.UUID) *InvoicePaymentRecordedEvent {
	return &InvoicePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRecorded, AggregateTypeInvoice, inv.ID),
		InvoiceNumber:   inv.InvoiceNumber,
		Amount:          amount,
		PaidAmount:      inv.PaidAmount,
		PaymentStatus:   inv.PaymentStatus,
		RecordedBy:      actorID,
	}
}

// EventType returns the event type name
func (e *InvoicePaymentRecordedEvent) EventType() string {
	return EventTypeInvoicePaymentRecorded
}

// ReturnInvoiceCreatedEvent is raised when a return is recorded
type ReturnInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Type              InvoiceType     `json:"type"`
	OriginalInvoiceID uuid.UUID       `json:"original_invoice_id"`
	OriginalNumber    string          `json:"original_number"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
}

// NewReturnInvoiceCreatedEvent creates a new ReturnInvoiceCreatedEvent
func NewReturnInvoiceCreatedEvent(ret, original *Invoice) *ReturnInvoiceCreatedEvent {
	return &ReturnInvoiceCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeReturnInvoiceCreated, AggregateTypeInvoice, ret.ID),
		Type:              ret.Type,
		OriginalInvoiceID: original.ID,
		OriginalNumber:    original.InvoiceNumber,
		GrandTotal:        ret.Totals.GrandTotal,
	}
}

// EventType returns the event type name
func (e *ReturnInvoiceCreatedEvent) EventType() string {
	return EventTypeReturnInvoiceCreated
}
