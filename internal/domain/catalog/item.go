// Package catalog describes the item master as seen by the reconciliation
// engine. Item maintenance lives outside the engine; only reads are required.
package catalog

import (
	"context"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a read-only view of an item master record
type Item struct {
	ID               uuid.UUID
	Code             string
	Name             string
	IsActive         bool
	CurrentStockHint decimal.Decimal // cached on the item master; never authoritative
	MinStock         decimal.Decimal
	MaxStock         decimal.Decimal
	TaxRate          valueobject.TaxRate
	SalePrice        decimal.Decimal
	PurchasePrice    decimal.Decimal
}

// IsBelowMin reports whether balance is under the reorder level
func (i *Item) IsBelowMin(balance decimal.Decimal) bool {
	return i.MinStock.IsPositive() && balance.LessThan(i.MinStock)
}

// IsAboveMax reports whether balance exceeds a configured maximum
func (i *Item) IsAboveMax(balance decimal.Decimal) bool {
	return i.MaxStock.IsPositive() && balance.GreaterThan(i.MaxStock)
}

// ItemReader resolves items by identity
type ItemReader interface {
	// GetByID returns shared.ErrNotFound when the item does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// ListActive returns all active items ordered by code
	ListActive(ctx context.Context) ([]Item, error)
}
