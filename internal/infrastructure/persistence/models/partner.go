package models

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// PartyModel is the persistence model for customers and suppliers.
type PartyModel struct {
	BaseModel
	Name             string           `gorm:"type:varchar(200);not null"`
	Type             string           `gorm:"type:varchar(20);not null;index"`
	IsActive         bool             `gorm:"not null"`
	CreditLimit      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	PaymentTermsDays int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party.
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		ID:               m.ID,
		Name:             m.Name,
		Type:             partner.PartyType(m.Type),
		IsActive:         m.IsActive,
		CreditLimit:      m.CreditLimit,
		PaymentTermsDays: m.PaymentTermsDays,
	}
}

// FromDomain populates the persistence model from a domain Party.
func (m *PartyModel) FromDomain(p *partner.Party) {
	m.ID = p.ID
	m.Name = p.Name
	m.Type = string(p.Type)
	m.IsActive = p.IsActive
	m.CreditLimit = p.CreditLimit
	m.PaymentTermsDays = p.PaymentTermsDays
}

// PartyModelFromDomain creates a new persistence model from a domain Party.
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{}
	m.FromDomain(p)
	return m
}
