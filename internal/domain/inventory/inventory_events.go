package inventory

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStockItem = "StockItem"

// Event type constants
const (
	EventTypeStockMoved          = "StockMoved"
	EventTypeStockAdjusted       = "StockAdjusted"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// StockMovedEvent is raised after a movement for an item has been committed
type StockMovedEvent struct {
	shared.BaseDomainEvent
	MovementID   uuid.UUID       `json:"movement_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	MovementType MovementType    `json:"movement_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reversal     bool            `json:"reversal"`
	SourceType   SourceType      `json:"source_type"`
	SourceID     uuid.UUID       `json:"source_id"`
}

// NewStockMovedEvent creates a new StockMovedEvent
func NewStockMovedEvent(m *StockMovement) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeStockItem, m.ItemID),
		MovementID:      m.ID,
		ItemID:          m.ItemID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		Reversal:        m.Reversal,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
	}
}

// EventType returns the event type name
func (e *StockMovedEvent) EventType() string {
	return EventTypeStockMoved
}

// StockAdjustedEvent is raised for manual adjustments
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ItemID     uuid.UUID       `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(m *StockMovement, newBalance decimal.Decimal) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockItem, m.ItemID),
		ItemID:          m.ItemID,
		Quantity:        m.Quantity,
		NewBalance:      newBalance,
		Reason:          m.Reason,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// StockBelowThresholdEvent is raised when an item falls under its minimum or
// climbs over its maximum
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	Alert StockAlert `json:"alert"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(alert StockAlert) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeStockItem, alert.ItemID),
		Alert:           alert,
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}
