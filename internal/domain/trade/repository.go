package trade

import (
	"context"
	"fmt"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Type              InvoiceType
	Status            InvoiceStatus
	PaymentStatus     PaymentStatus
	PartyID           *uuid.UUID
	OriginalInvoiceID *uuid.UUID
	Range             shared.DateRange // on InvoiceDate
	Search            string           // matches invoice number prefix
}

// InvoiceRepository persists invoices with their lines
type InvoiceRepository interface {
	// FindByID loads an invoice with lines
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate loads an invoice with lines and takes a row lock where
	// the database supports it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber loads an invoice by its document number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// Find lists invoices without lines and returns the total match count
	Find(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindReturnsOf loads every return (any status) raised against originalID
	FindReturnsOf(ctx context.Context, originalID uuid.UUID) ([]Invoice, error)

	// Create inserts a new invoice and its lines
	Create(ctx context.Context, inv *Invoice) error

	// Update writes the header guarded by the loaded version and the given
	// status; draft lines are replaced. On success inv.Version is advanced.
	// A lost race returns shared.ErrConcurrencyConflict.
	Update(ctx context.Context, inv *Invoice, expected InvoiceStatus) error
}

// NumberSequence issues document numbers
type NumberSequence interface {
	// Next returns the next value for prefix and year, starting at 1
	Next(ctx context.Context, prefix string, year int) (int64, error)
}

// FormatInvoiceNumber renders PREFIX-YEAR-NNNNN with at least width digits
func FormatInvoiceNumber(prefix string, year int, seq int64, width int) string {
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, width, seq)
}
