package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchPick is the quantity to take from one batch
type BatchPick struct {
	BatchNumber string          `json:"batch_number"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// PickPlan is a first expired, first out allocation of a quantity over an
// item's batches
type PickPlan struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Requested decimal.Decimal `json:"requested"`
	Picks     []BatchPick     `json:"picks"`
	Picked    decimal.Decimal `json:"picked"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// Covered reports whether the batches hold the whole requested quantity
func (p PickPlan) Covered() bool {
	return p.Shortfall.IsZero()
}

// PlanPicksFEFO allocates qty of itemID over batches, earliest expiry first.
// Batches expired at asOf are skipped; batches without an expiry go last,
// ordered by batch number.
func PlanPicksFEFO(itemID uuid.UUID, batches []BatchBalance, qty decimal.Decimal, asOf time.Time) PickPlan {
	candidates := make([]BatchBalance, 0, len(batches))
	for _, b := range batches {
		if b.ItemID != itemID || !b.Quantity.IsPositive() {
			continue
		}
		if b.ExpiryDate != nil && !b.ExpiryDate.After(asOf) {
			continue
		}
		candidates = append(candidates, b)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		switch {
		case ei == nil && ej == nil:
			return candidates[i].BatchNumber < candidates[j].BatchNumber
		case ei == nil:
			return false
		case ej == nil:
			return true
		case !ei.Equal(*ej):
			return ei.Before(*ej)
		default:
			return candidates[i].BatchNumber < candidates[j].BatchNumber
		}
	})

	plan := PickPlan{
		ItemID:    itemID,
		Requested: qty,
		Picks:     make([]BatchPick, 0),
		Picked:    decimal.Zero,
	}
	remaining := qty
	for _, b := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.Quantity)
		plan.Picks = append(plan.Picks, BatchPick{
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			Quantity:    take,
		})
		plan.Picked = plan.Picked.Add(take)
		remaining = remaining.Sub(take)
	}
	plan.Shortfall = decimal.Max(remaining, decimal.Zero)
	return plan
}
