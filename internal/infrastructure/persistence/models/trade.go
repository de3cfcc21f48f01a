package models

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber     string          `gorm:"type:varchar(32);not null;uniqueIndex"`
	Type              string          `gorm:"type:varchar(20);not null;index"`
	PartyID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartyType         string          `gorm:"type:varchar(20);not null"`
	InvoiceDate       time.Time       `gorm:"not null;index"`
	DueDate           time.Time       `gorm:"not null"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxableAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	PaymentStatus     string          `gorm:"type:varchar(20);not null"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReturnedAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OriginalInvoiceID *uuid.UUID      `gorm:"type:uuid;index"`
	ReturnReason      string          `gorm:"type:varchar(500)"`
	ReturnNotes       string          `gorm:"type:text"`
	ReturnedAt        *time.Time
	Transporter       string `gorm:"type:varchar(100)"`
	BiltyNumber       string `gorm:"type:varchar(50)"`
	BiltyDate         *time.Time
	VehicleNumber     string     `gorm:"type:varchar(30)"`
	Notes             string     `gorm:"type:text"`
	CreatedBy         *uuid.UUID `gorm:"type:uuid"`
	ConfirmedBy       *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt       *time.Time
	CancelledBy       *uuid.UUID `gorm:"type:uuid"`
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
	// Associations
	Lines []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice. When lines are
// loaded the totals are recomputed from them, which also restores the tax
// breakdown; header-only loads keep the stored totals.
func (m *InvoiceModel) ToDomain() *trade.Invoice {
	inv := &trade.Invoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		InvoiceNumber:     m.InvoiceNumber,
		Type:              trade.InvoiceType(m.Type),
		PartyID:           m.PartyID,
		PartyType:         partner.PartyType(m.PartyType),
		InvoiceDate:       m.InvoiceDate,
		DueDate:           m.DueDate,
		Lines:             make([]trade.InvoiceLine, len(m.Lines)),
		Totals: trade.Totals{
			Subtotal:      m.Subtotal,
			TotalDiscount: m.TotalDiscount,
			TaxableAmount: m.TaxableAmount,
			TotalTax:      m.TotalTax,
			TaxBreakdown:  []trade.TaxBucketTotal{},
			GrandTotal:    m.GrandTotal,
		},
		Status:            trade.InvoiceStatus(m.Status),
		PaymentStatus:     trade.PaymentStatus(m.PaymentStatus),
		PaidAmount:        m.PaidAmount,
		ReturnedAmount:    m.ReturnedAmount,
		OriginalInvoiceID: m.OriginalInvoiceID,
		Transport: trade.TransportInfo{
			Transporter:   m.Transporter,
			BiltyNumber:   m.BiltyNumber,
			BiltyDate:     m.BiltyDate,
			VehicleNumber: m.VehicleNumber,
		},
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
		ConfirmedBy:  m.ConfirmedBy,
		ConfirmedAt:  m.ConfirmedAt,
		CancelledBy:  m.CancelledBy,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
	}
	if m.ReturnReason != "" || m.ReturnedAt != nil {
		meta := &trade.ReturnMetadata{Reason: m.ReturnReason, Notes: m.ReturnNotes}
		if m.ReturnedAt != nil {
			meta.ReturnedAt = *m.ReturnedAt
		}
		inv.ReturnMetadata = meta
	}
	for i := range m.Lines {
		inv.Lines[i] = *m.Lines[i].ToDomain()
	}
	if len(inv.Lines) > 0 {
		inv.Totals = trade.ComputeTotals(inv.Lines)
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *trade.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Type = string(inv.Type)
	m.PartyID = inv.PartyID
	m.PartyType = string(inv.PartyType)
	m.InvoiceDate = inv.InvoiceDate.UTC()
	m.DueDate = inv.DueDate.UTC()
	m.Subtotal = inv.Totals.Subtotal
	m.TotalDiscount = inv.Totals.TotalDiscount
	m.TaxableAmount = inv.Totals.TaxableAmount
	m.TotalTax = inv.Totals.TotalTax
	m.GrandTotal = inv.Totals.GrandTotal
	m.Status = string(inv.Status)
	m.PaymentStatus = string(inv.PaymentStatus)
	m.PaidAmount = inv.PaidAmount
	m.ReturnedAmount = inv.ReturnedAmount
	m.OriginalInvoiceID = inv.OriginalInvoiceID
	if inv.ReturnMetadata != nil {
		m.ReturnReason = inv.ReturnMetadata.Reason
		m.ReturnNotes = inv.ReturnMetadata.Notes
		m.ReturnedAt = utcPtr(&inv.ReturnMetadata.ReturnedAt)
	}
	m.Transporter = inv.Transport.Transporter
	m.BiltyNumber = inv.Transport.BiltyNumber
	m.BiltyDate = utcPtr(inv.Transport.BiltyDate)
	m.VehicleNumber = inv.Transport.VehicleNumber
	m.Notes = inv.Notes
	m.CreatedBy = inv.CreatedBy
	m.ConfirmedBy = inv.ConfirmedBy
	m.ConfirmedAt = utcPtr(inv.ConfirmedAt)
	m.CancelledBy = inv.CancelledBy
	m.CancelledAt = utcPtr(inv.CancelledAt)
	m.CancelReason = inv.CancelReason
	m.Lines = make([]InvoiceLineModel, len(inv.Lines))
	for i := range inv.Lines {
		m.Lines[i] = *InvoiceLineModelFromDomain(&inv.Lines[i])
	}
}

// HeaderUpdates returns the mutable header columns for a guarded update
func (m *InvoiceModel) HeaderUpdates() map[string]any {
	return map[string]any{
		"invoice_number":  m.InvoiceNumber,
		"invoice_date":    m.InvoiceDate,
		"due_date":        m.DueDate,
		"subtotal":        m.Subtotal,
		"total_discount":  m.TotalDiscount,
		"taxable_amount":  m.TaxableAmount,
		"total_tax":       m.TotalTax,
		"grand_total":     m.GrandTotal,
		"status":          m.Status,
		"payment_status":  m.PaymentStatus,
		"paid_amount":     m.PaidAmount,
		"returned_amount": m.ReturnedAmount,
		"transporter":     m.Transporter,
		"bilty_number":    m.BiltyNumber,
		"bilty_date":      m.BiltyDate,
		"vehicle_number":  m.VehicleNumber,
		"notes":           m.Notes,
		"confirmed_by":    m.ConfirmedBy,
		"confirmed_at":    m.ConfirmedAt,
		"cancelled_by":    m.CancelledBy,
		"cancelled_at":    m.CancelledAt,
		"cancel_reason":   m.CancelReason,
		"updated_at":      m.UpdatedAt,
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *trade.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineModel is the persistence model for invoice lines.
type InvoiceLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoice_line_no,priority:1"`
	LineNo         int             `gorm:"not null;uniqueIndex:idx_invoice_line_no,priority:2"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode       string          `gorm:"type:varchar(50)"`
	ItemName       string          `gorm:"type:varchar(200)"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate        int             `gorm:"not null;default:0"`
	TaxableAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BatchNumber    string          `gorm:"type:varchar(50)"`
	ExpiryDate     *time.Time      `gorm:"type:date"`
	OriginalLineID *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() *trade.InvoiceLine {
	return &trade.InvoiceLine{
		ID:             m.ID,
		InvoiceID:      m.InvoiceID,
		LineNo:         m.LineNo,
		ItemID:         m.ItemID,
		ItemCode:       m.ItemCode,
		ItemName:       m.ItemName,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		Discount:       m.Discount,
		TaxRate:        valueobject.TaxRate(m.TaxRate),
		TaxableAmount:  m.TaxableAmount,
		TaxAmount:      m.TaxAmount,
		LineTotal:      m.LineTotal,
		BatchNumber:    m.BatchNumber,
		ExpiryDate:     m.ExpiryDate,
		OriginalLineID: m.OriginalLineID,
	}
}

// InvoiceLineModelFromDomain creates a new persistence model from a domain InvoiceLine.
func InvoiceLineModelFromDomain(l *trade.InvoiceLine) *InvoiceLineModel {
	return &InvoiceLineModel{
		ID:             l.ID,
		InvoiceID:      l.InvoiceID,
		LineNo:         l.LineNo,
		ItemID:         l.ItemID,
		ItemCode:       l.ItemCode,
		ItemName:       l.ItemName,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		Discount:       l.Discount,
		TaxRate:        int(l.TaxRate),
		TaxableAmount:  l.TaxableAmount,
		TaxAmount:      l.TaxAmount,
		LineTotal:      l.LineTotal,
		BatchNumber:    l.BatchNumber,
		ExpiryDate:     utcPtr(l.ExpiryDate),
		OriginalLineID: l.OriginalLineID,
	}
}

// InvoiceSequenceModel holds the last issued number per prefix and year.
type InvoiceSequenceModel struct {
	Prefix       string `gorm:"type:varchar(8);primaryKey"`
	Year         int    `gorm:"primaryKey;autoIncrement:false"`
	CurrentValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
