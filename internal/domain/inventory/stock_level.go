package inventory

import (
	"sort"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceAsOf sums the quantities of movements that occurred at or before at
func BalanceAsOf(movements []StockMovement, at time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range movements {
		if !movements[i].OccurredAt.After(at) {
			total = total.Add(movements[i].Quantity)
		}
	}
	return total
}

// SortMovements orders movements by OccurredAt, then CreatedAt
func SortMovements(movements []StockMovement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// StockLevel is the materialised balance of one item. It is a projection of
// the movement log and carries a version for guarded updates.
type StockLevel struct {
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Version   int
	UpdatedAt time.Time
}

// MovementLine pairs a movement with the running balance after it
type MovementLine struct {
	Movement StockMovement
	Balance  decimal.Decimal
}

// RunningBalance returns movements with the balance after each one, starting
// from opening.
func RunningBalance(opening decimal.Decimal, movements []StockMovement) []MovementLine {
	lines := make([]MovementLine, 0, len(movements))
	bal := opening
	for _, m := range movements {
		bal = bal.Add(m.Quantity)
		lines = append(lines, MovementLine{Movement: m, Balance: bal})
	}
	return lines
}

// BatchBalance is the remaining quantity of one batch of an item
type BatchBalance struct {
	ItemID      uuid.UUID       `json:"item_id"`
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// IsExpiringBy reports whether the batch still holds stock and expires at
// or before cutoff
func (b BatchBalance) IsExpiringBy(cutoff time.Time) bool {
	return b.Quantity.IsPositive() && b.ExpiryDate != nil && !b.ExpiryDate.After(cutoff)
}

// ExpiringBatches filters batches expiring by cutoff, soonest first
func ExpiringBatches(batches []BatchBalance, cutoff time.Time) []BatchBalance {
	out := make([]BatchBalance, 0)
	for _, b := range batches {
		if b.IsExpiringBy(cutoff) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out
}

// AlertKind distinguishes low from excess stock
type AlertKind string

const (
	AlertKindLowStock  AlertKind = "low_stock"
	AlertKindOverStock AlertKind = "over_stock"
)

// StockAlert reports an item whose balance is outside its configured band
type StockAlert struct {
	ItemID   uuid.UUID       `json:"item_id"`
	ItemCode string          `json:"item_code"`
	ItemName string          `json:"item_name"`
	Kind     AlertKind       `json:"kind"`
	Balance  decimal.Decimal `json:"balance"`
	MinStock decimal.Decimal `json:"min_stock"`
	MaxStock decimal.Decimal `json:"max_stock"`
}

// EvaluateStockLevel returns an alert for item at balance, or nil when the
// balance is within bounds
func EvaluateStockLevel(item *catalog.Item, balance decimal.Decimal) *StockAlert {
	var kind AlertKind
	switch {
	case item.IsBelowMin(balance):
		kind = AlertKindLowStock
	case item.IsAboveMax(balance):
		kind = AlertKindOverStock
	default:
		return nil
	}
	return &StockAlert{
		ItemID:   item.ID,
		ItemCode: item.Code,
		ItemName: item.Name,
		Kind:     kind,
		Balance:  balance,
		MinStock: item.MinStock,
		MaxStock: item.MaxStock,
	}
}

// ProjectionDrift reports a stock level row that disagrees with the log
type ProjectionDrift struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Projected decimal.Decimal `json:"projected"`
	Derived   decimal.Decimal `json:"derived"`
}

// CompareProjection returns one drift per item whose projected quantity
// differs from the log-derived quantity. Items missing on either side are
// treated as zero.
func CompareProjection(projected, derived map[uuid.UUID]decimal.Decimal) []ProjectionDrift {
	seen := make(map[uuid.UUID]struct{}, len(derived))
	drifts := make([]ProjectionDrift, 0)
	check := func(id uuid.UUID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		p, d := projected[id], derived[id]
		if !p.Equal(d) {
			drifts = append(drifts, ProjectionDrift{ItemID: id, Projected: p, Derived: d})
		}
	}
	for id := range derived {
		check(id)
	}
	for id := range projected {
		check(id)
	}
	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].ItemID.String() < drifts[j].ItemID.String()
	})
	return drifts
}
