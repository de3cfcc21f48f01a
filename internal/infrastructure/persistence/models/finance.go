package models

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for one side of a double entry.
type LedgerEntryModel struct {
	BaseModel
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_account_posted,priority:1"`
	AccountType   string          `gorm:"type:varchar(20);not null"`
	EntryType     string          `gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Kind          string          `gorm:"type:varchar(20);not null"`
	ReferenceType string          `gorm:"type:varchar(30);not null;index:idx_ledger_reference,priority:1"`
	ReferenceID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_reference,priority:2"`
	Narration     string          `gorm:"type:varchar(500)"`
	PostedBy      *uuid.UUID      `gorm:"type:uuid"`
	PostedAt      time.Time       `gorm:"not null;index:idx_ledger_account_posted,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *finance.LedgerEntry {
	return &finance.LedgerEntry{
		BaseEntity:    m.BaseModel.ToDomain(),
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		AccountType:   finance.AccountType(m.AccountType),
		EntryType:     finance.EntryType(m.EntryType),
		Amount:        m.Amount,
		Kind:          finance.EntryKind(m.Kind),
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Narration:     m.Narration,
		PostedBy:      m.PostedBy,
		PostedAt:      m.PostedAt,
	}
}

// FromDomain populates the persistence model from a domain LedgerEntry.
func (m *LedgerEntryModel) FromDomain(e *finance.LedgerEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.TransactionID = e.TransactionID
	m.AccountID = e.AccountID
	m.AccountType = string(e.AccountType)
	m.EntryType = string(e.EntryType)
	m.Amount = e.Amount
	m.Kind = string(e.Kind)
	m.ReferenceType = e.ReferenceType
	m.ReferenceID = e.ReferenceID
	m.Narration = e.Narration
	m.PostedBy = e.PostedBy
	m.PostedAt = e.PostedAt.UTC()
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *finance.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{}
	m.FromDomain(e)
	return m
}
