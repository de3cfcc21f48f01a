package trade

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/application/validation"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validation.New()

// LineRequest is one line of a draft invoice. Zero UnitPrice takes the item
// master price for the invoice side; nil TaxRate takes the item's rate.
type LineRequest struct {
	ItemID      uuid.UUID       `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     *int            `json:"tax_rate" validate:"omitempty,oneof=0 4 5 12 18 28"`
	BatchNumber string          `json:"batch_number" validate:"max=50"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
}

// CreateInvoiceRequest represents a request to create a draft invoice
type CreateInvoiceRequest struct {
	Type        string               `json:"type" validate:"required,oneof=sales purchase"`
	PartyID     uuid.UUID            `json:"party_id" validate:"required"`
	InvoiceDate *time.Time           `json:"invoice_date"`
	Lines       []LineRequest        `json:"lines" validate:"required,min=1,dive"`
	Notes       string               `json:"notes" validate:"max=2000"`
	Transport   *trade.TransportInfo `json:"transport"`
	ActorID     uuid.UUID            `json:"actor_id" validate:"required"`
}

// UpdateLinesRequest replaces the lines of a draft
type UpdateLinesRequest struct {
	Lines   []LineRequest `json:"lines" validate:"required,min=1,dive"`
	ActorID uuid.UUID     `json:"actor_id" validate:"required"`
}

// PaymentRequest records a settlement
type PaymentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	ActorID uuid.UUID       `json:"actor_id" validate:"required"`
}

// CancelRequest cancels an invoice
type CancelRequest struct {
	Reason  string    `json:"reason" validate:"required,max=500"`
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
}

// ReturnLineRequest asks to return a quantity of an item
type ReturnLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateReturnRequest represents a request to return goods against an invoice.
// An empty Kind is derived from the original invoice.
type CreateReturnRequest struct {
	OriginalInvoiceID uuid.UUID           `json:"original_invoice_id" validate:"required"`
	Kind              string              `json:"kind" validate:"omitempty,oneof=return_sales return_purchase"`
	Lines             []ReturnLineRequest `json:"lines" validate:"required,min=1,dive"`
	Reason            string              `json:"reason" validate:"required,max=500"`
	Notes             string              `json:"notes" validate:"max=2000"`
	ActorID           uuid.UUID           `json:"actor_id" validate:"required"`
}

func (r CreateReturnRequest) domainLines() []trade.ReturnLineRequest {
	out := make([]trade.ReturnLineRequest, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = trade.ReturnLineRequest{ItemID: l.ItemID, Quantity: l.Quantity}
	}
	return out
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	LineNo         int             `json:"line_no"`
	ItemID         uuid.UUID       `json:"item_id"`
	ItemCode       string          `json:"item_code"`
	ItemName       string          `json:"item_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	TaxRate        int             `json:"tax_rate"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	OriginalLineID *uuid.UUID      `json:"original_line_id,omitempty"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	InvoiceNumber     string                `json:"invoice_number"`
	Type              string                `json:"type"`
	PartyID           uuid.UUID             `json:"party_id"`
	PartyType         string                `json:"party_type"`
	InvoiceDate       time.Time             `json:"invoice_date"`
	DueDate           time.Time             `json:"due_date"`
	Status            string                `json:"status"`
	PaymentStatus     string                `json:"payment_status"`
	Totals            trade.Totals          `json:"totals"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	ReturnedAmount    decimal.Decimal       `json:"returned_amount"`
	Outstanding       decimal.Decimal       `json:"outstanding"`
	OriginalInvoiceID *uuid.UUID            `json:"original_invoice_id,omitempty"`
	ReturnMetadata    *trade.ReturnMetadata `json:"return_metadata,omitempty"`
	Transport         trade.TransportInfo   `json:"transport"`
	Notes             string                `json:"notes,omitempty"`
	Lines             []InvoiceLineResponse `json:"lines,omitempty"`
	ConfirmedAt       *time.Time            `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Version           int                   `json:"version"`
}

// InvoiceListFilter represents filter options for invoice list
type InvoiceListFilter struct {
	Type          string     `form:"type" validate:"omitempty,oneof=sales purchase return_sales return_purchase"`
	Status        string     `form:"status" validate:"omitempty,oneof=draft confirmed paid cancelled"`
	PaymentStatus string     `form:"payment_status" validate:"omitempty,oneof=pending partial paid"`
	PartyID       *uuid.UUID `form:"-"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Search        string     `form:"search"`
	Page          int        `form:"page" validate:"omitempty,min=1"`
	PageSize      int        `form:"page_size" validate:"omitempty,min=1,max=100"`
	OrderBy       string     `form:"order_by" validate:"omitempty,oneof=invoice_date invoice_number created_at"`
	OrderDir      string     `form:"order_dir" validate:"omitempty,oneof=asc desc"`
}

func (f InvoiceListFilter) toDomain() trade.InvoiceFilter {
	out := trade.InvoiceFilter{
		Type:          trade.InvoiceType(f.Type),
		Status:        trade.InvoiceStatus(f.Status),
		PaymentStatus: trade.PaymentStatus(f.PaymentStatus),
		PartyID:       f.PartyID,
		Search:        f.Search,
	}
	out.Page = f.Page
	out.PageSize = f.PageSize
	out.OrderBy = f.OrderBy
	out.OrderDir = f.OrderDir
	if out.Page <= 0 {
		out.Page = 1
	}
	if out.PageSize <= 0 {
		out.PageSize = 20
	}
	if f.From != nil {
		out.Range.From = *f.From
	}
	if f.To != nil {
		out.Range.To = *f.To
	}
	return out
}

// ReturnCheckResponse is the outcome of a return validation dry run
type ReturnCheckResponse struct {
	OriginalInvoiceID uuid.UUID                   `json:"original_invoice_id"`
	Kind              string                      `json:"kind"`
	Lines             []trade.ValidatedReturnLine `json:"lines"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *trade.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		Type:              string(inv.Type),
		PartyID:           inv.PartyID,
		PartyType:         string(inv.PartyType),
		InvoiceDate:       inv.InvoiceDate,
		DueDate:           inv.DueDate,
		Status:            string(inv.Status),
		PaymentStatus:     string(inv.PaymentStatus),
		Totals:            inv.Totals,
		PaidAmount:        inv.PaidAmount,
		ReturnedAmount:    inv.ReturnedAmount,
		OriginalInvoiceID: inv.OriginalInvoiceID,
		ReturnMetadata:    inv.ReturnMetadata,
		Transport:         inv.Transport,
		Notes:             inv.Notes,
		Lines:             make([]InvoiceLineResponse, len(inv.Lines)),
		ConfirmedAt:       inv.ConfirmedAt,
		CancelledAt:       inv.CancelledAt,
		CancelReason:      inv.CancelReason,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
	if !inv.Type.IsReturn() && inv.Status.IsPosted() {
		resp.Outstanding = inv.Outstanding()
	}
	for i, l := range inv.Lines {
		resp.Lines[i] = InvoiceLineResponse{
			ID:             l.ID,
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
			ExpiryDate:     l.ExpiryDate,
			OriginalLineID: l.OriginalLineID,
		}
	}
	return resp
}

// ToInvoiceResponses converts a slice of invoices
func ToInvoiceResponses(invoices []trade.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}
