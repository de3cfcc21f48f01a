package finance

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeLedgerTransaction = "LedgerTransaction"

// Event type constants
const (
	EventTypeDoubleEntryPosted = "DoubleEntryPosted"
)

// DoubleEntryPostedEvent is raised after a balanced pair is committed
type DoubleEntryPostedEvent struct {
	shared.BaseDomainEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	DebitAccount  AccountRef      `json:"debit_account"`
	CreditAccount AccountRef      `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          EntryKind       `json:"kind"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
}

// NewDoubleEntryPostedEvent creates the event for a posted pair
func NewDoubleEntryPostedEvent(transactionID uuid.UUID, d DoubleEntry) *DoubleEntryPostedEvent {
	return &DoubleEntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDoubleEntryPosted, AggregateTypeLedgerTransaction, transactionID),
		TransactionID:   transactionID,
		DebitAccount:    d.Debit,
		CreditAccount:   d.Credit,
		Amount:          d.Amount,
		Kind:            d.Kind,
		ReferenceType:   d.ReferenceType,
		ReferenceID:     d.ReferenceID,
	}
}

// EventType returns the event type name
func (e *DoubleEntryPostedEvent) EventType() string {
	return EventTypeDoubleEntryPosted
}
