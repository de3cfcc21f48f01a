package inventory

import (
	"context"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementFilter narrows movement queries
type MovementFilter struct {
	shared.Filter
	ItemID       *uuid.UUID
	MovementType MovementType
	SourceType   SourceType
	SourceID     *uuid.UUID
	BatchNumber  string
	Range        shared.DateRange
}

// StockMovementRepository is append-only: movements are never updated or
// deleted once written.
type StockMovementRepository interface {
	// Append writes movements in order
	Append(ctx context.Context, movements ...*StockMovement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindBySource returns the movements of one source document, forward and
	// reversal alike, ordered by OccurredAt then CreatedAt
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]StockMovement, error)

	// Find returns movements matching the filter, ordered by OccurredAt then CreatedAt
	Find(ctx context.Context, filter MovementFilter) ([]StockMovement, error)

	// SumQuantity returns the balance of itemID from movements at or before at
	SumQuantity(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error)

	// SumByItem returns the log balance of every item with at least one movement
	SumByItem(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)

	// BatchBalances returns remaining quantities per batch; itemID nil means all items
	BatchBalances(ctx context.Context, itemID *uuid.UUID) ([]BatchBalance, error)
}

// StockLevelRepository maintains the stock level projection
type StockLevelRepository interface {
	// FindByItem returns the item's row, or a zero row with Version 0 when the
	// item has never moved
	FindByItem(ctx context.Context, itemID uuid.UUID) (*StockLevel, error)

	// FindAll returns every projection row
	FindAll(ctx context.Context) ([]StockLevel, error)

	// Apply adds delta to level, guarded by level.Version (0 inserts the row).
	// On success level is updated in place. A lost race returns
	// shared.ErrConcurrencyConflict.
	Apply(ctx context.Context, level *StockLevel, delta decimal.Decimal) error

	// Set overwrites the item's quantity, used by projection rebuilds
	Set(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error
}
