package models

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the item master. The reconciliation
// engine only reads it.
type ItemModel struct {
	BaseModel
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	IsActive      bool            `gorm:"not null;index"`
	CurrentStock  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate       int             `gorm:"not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		ID:               m.ID,
		Code:             m.Code,
		Name:             m.Name,
		IsActive:         m.IsActive,
		CurrentStockHint: m.CurrentStock,
		MinStock:         m.MinStock,
		MaxStock:         m.MaxStock,
		TaxRate:          valueobject.TaxRate(m.TaxRate),
		SalePrice:        m.SalePrice,
		PurchasePrice:    m.PurchasePrice,
	}
}

// FromDomain populates the persistence model from a domain Item.
func (m *ItemModel) FromDomain(i *catalog.Item) {
	m.ID = i.ID
	m.Code = i.Code
	m.Name = i.Name
	m.IsActive = i.IsActive
	m.CurrentStock = i.CurrentStockHint
	m.MinStock = i.MinStock
	m.MaxStock = i.MaxStock
	m.TaxRate = int(i.TaxRate)
	m.SalePrice = i.SalePrice
	m.PurchasePrice = i.PurchasePrice
}

// ItemModelFromDomain creates a new persistence model from a domain Item.
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}
