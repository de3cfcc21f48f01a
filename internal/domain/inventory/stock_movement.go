package inventory

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the kind of stock movement
type MovementType string

const (
	// MovementTypeIn is stock received (purchase confirmation)
	MovementTypeIn MovementType = "in"
	// MovementTypeOut is stock issued (sales confirmation)
	MovementTypeOut MovementType = "out"
	// MovementTypeAdjustment is a manual correction in either direction
	MovementTypeAdjustment MovementType = "adjustment"
	// MovementTypeReturnToSupplier is stock sent back on a purchase return
	MovementTypeReturnToSupplier MovementType = "return_to_supplier"
	// MovementTypeReturnFromCustomer is stock received back on a sales return
	MovementTypeReturnFromCustomer MovementType = "return_from_customer"
	// MovementTypeTransferIn is stock transferred in from another store
	MovementTypeTransferIn MovementType = "transfer_in"
	// MovementTypeTransferOut is stock transferred out to another store
	MovementTypeTransferOut MovementType = "transfer_out"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn,
		MovementTypeOut,
		MovementTypeAdjustment,
		MovementTypeReturnToSupplier,
		MovementTypeReturnFromCustomer,
		MovementTypeTransferIn,
		MovementTypeTransferOut:
		return true
	}
	return false
}

// NaturalSign returns +1 for types that increase stock, -1 for types that
// decrease it and 0 for adjustments, which may go either way.
func (t MovementType) NaturalSign() int {
	switch t {
	case MovementTypeIn, MovementTypeReturnFromCustomer, MovementTypeTransferIn:
		return 1
	case MovementTypeOut, MovementTypeReturnToSupplier, MovementTypeTransferOut:
		return -1
	}
	return 0
}

// SourceType represents the document that caused a movement
type SourceType string

const (
	SourceTypeInvoice          SourceType = "invoice"
	SourceTypeManualAdjustment SourceType = "manual_adjustment"
	SourceTypeOpeningStock     SourceType = "opening_stock"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeInvoice, SourceTypeManualAdjustment, SourceTypeOpeningStock:
		return true
	}
	return false
}

// StockMovement is an immutable record of a signed quantity change for one
// item. Corrections are made by appending compensating movements.
type StockMovement struct {
	shared.BaseEntity
	ItemID             uuid.UUID
	Quantity           decimal.Decimal // signed
	MovementType       MovementType
	Reversal           bool
	ReversesMovementID *uuid.UUID
	SourceType         SourceType
	SourceID           uuid.UUID
	SourceLineID       *uuid.UUID
	BatchNumber        string
	ExpiryDate         *time.Time
	Reason             string
	OperatorID         *uuid.UUID
	OccurredAt         time.Time
}

// NewStockMovement creates a forward movement. The quantity must be non-zero
// and carry the movement type's natural sign.
func NewStockMovement(
	itemID uuid.UUID,
	movementType MovementType,
	quantity decimal.Decimal,
	sourceType SourceType,
	sourceID uuid.UUID,
) (*StockMovement, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if sign := movementType.NaturalSign(); sign != 0 && quantity.Sign() != sign {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity sign does not match movement type "+movementType.String())
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Invalid source type")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE_ID", "Source ID cannot be empty")
	}

	base := shared.NewBaseEntity()
	return &StockMovement{
		BaseEntity:   base,
		ItemID:       itemID,
		Quantity:     quantity,
		MovementType: movementType,
		SourceType:   sourceType,
		SourceID:     sourceID,
		OccurredAt:   base.CreatedAt,
	}, nil
}

// WithSourceLineID sets the source line for the movement
func (m *StockMovement) WithSourceLineID(lineID uuid.UUID) *StockMovement {
	m.SourceLineID = &lineID
	return m
}

// WithBatch sets batch number and expiry
func (m *StockMovement) WithBatch(batchNumber string, expiry *time.Time) *StockMovement {
	m.BatchNumber = batchNumber
	m.ExpiryDate = expiry
	return m
}

// WithReason sets the reason for the movement
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}

// WithOperatorID sets the operator who caused the movement
func (m *StockMovement) WithOperatorID(operatorID uuid.UUID) *StockMovement {
	m.OperatorID = &operatorID
	return m
}

// WithOccurredAt sets the effective time of the movement
func (m *StockMovement) WithOccurredAt(at time.Time) *StockMovement {
	m.OccurredAt = at
	return m
}

// Reverse builds the compensating movement for m. The compensation keeps the
// movement type and source, negates the quantity and points back at m.
func (m *StockMovement) Reverse(operatorID uuid.UUID, reason string) (*StockMovement, error) {
	if m.Reversal {
		return nil, shared.NewInvalidStateError("A reversal movement cannot itself be reversed")
	}
	base := shared.NewBaseEntity()
	id := m.ID
	rev := &StockMovement{
		BaseEntity:         base,
		ItemID:             m.ItemID,
		Quantity:           m.Quantity.Neg(),
		MovementType:       m.MovementType,
		Reversal:           true,
		ReversesMovementID: &id,
		SourceType:         m.SourceType,
		SourceID:           m.SourceID,
		SourceLineID:       m.SourceLineID,
		BatchNumber:        m.BatchNumber,
		ExpiryDate:         m.ExpiryDate,
		Reason:             reason,
		OccurredAt:         base.CreatedAt,
	}
	if operatorID != uuid.Nil {
		rev.OperatorID = &operatorID
	}
	return rev, nil
}

// IsIncrease returns true if the movement adds stock
func (m *StockMovement) IsIncrease() bool {
	return m.Quantity.IsPositive()
}

// IsDecrease returns true if the movement removes stock
func (m *StockMovement) IsDecrease() bool {
	return m.Quantity.IsNegative()
}
