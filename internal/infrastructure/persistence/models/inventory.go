package models

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockMovementModel is the persistence model for the append-only movement log.
type StockMovementModel struct {
	BaseModel
	ItemID             uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_item_time,priority:1"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MovementType       string          `gorm:"type:varchar(30);not null"`
	Reversal           bool            `gorm:"not null;default:false"`
	ReversesMovementID *uuid.UUID      `gorm:"type:uuid;index"`
	SourceType         string          `gorm:"type:varchar(30);not null;index:idx_stock_movement_source,priority:1"`
	SourceID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movement_source,priority:2"`
	SourceLineID       *uuid.UUID      `gorm:"type:uuid"`
	BatchNumber        string          `gorm:"type:varchar(50);index"`
	ExpiryDate         *time.Time      `gorm:"type:date"`
	Reason             string          `gorm:"type:varchar(500)"`
	OperatorID         *uuid.UUID      `gorm:"type:uuid"`
	OccurredAt         time.Time       `gorm:"not null;index:idx_stock_movement_item_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		BaseEntity:         m.BaseModel.ToDomain(),
		ItemID:             m.ItemID,
		Quantity:           m.Quantity,
		MovementType:       inventory.MovementType(m.MovementType),
		Reversal:           m.Reversal,
		ReversesMovementID: m.ReversesMovementID,
		SourceType:         inventory.SourceType(m.SourceType),
		SourceID:           m.SourceID,
		SourceLineID:       m.SourceLineID,
		BatchNumber:        m.BatchNumber,
		ExpiryDate:         m.ExpiryDate,
		Reason:             m.Reason,
		OperatorID:         m.OperatorID,
		OccurredAt:         m.OccurredAt,
	}
}

// FromDomain populates the persistence model from a domain StockMovement.
func (m *StockMovementModel) FromDomain(s *inventory.StockMovement) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ItemID = s.ItemID
	m.Quantity = s.Quantity
	m.MovementType = string(s.MovementType)
	m.Reversal = s.Reversal
	m.ReversesMovementID = s.ReversesMovementID
	m.SourceType = string(s.SourceType)
	m.SourceID = s.SourceID
	m.SourceLineID = s.SourceLineID
	m.BatchNumber = s.BatchNumber
	m.ExpiryDate = utcPtr(s.ExpiryDate)
	m.Reason = s.Reason
	m.OperatorID = s.OperatorID
	m.OccurredAt = s.OccurredAt.UTC()
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement.
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	m := &StockMovementModel{}
	m.FromDomain(s)
	return m
}

// StockLevelModel is the persistence model for the per-item stock projection.
type StockLevelModel struct {
	ItemID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Version   int             `gorm:"not null;default:1"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string {
	return "stock_levels"
}

// ToDomain converts the persistence model to a domain StockLevel.
func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	return &inventory.StockLevel{
		ItemID:    m.ItemID,
		Quantity:  m.Quantity,
		Version:   m.Version,
		UpdatedAt: m.UpdatedAt,
	}
}
