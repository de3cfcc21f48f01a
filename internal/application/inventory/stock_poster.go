package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsufficientStock describes one item that cannot cover a decrease
type InsufficientStock struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Balance   decimal.Decimal `json:"balance"`
	Requested decimal.Decimal `json:"requested"`
}

// PostMovements appends movements to the log and moves the stock level
// projection by the same deltas, all through the given transactional
// repositories. Items whose balance would go negative are rejected with
// shared.ErrInsufficientStock listing every short item.
//
// The projection row is read before the balance check and written with a
// version guard, so a concurrent posting for the same item surfaces as
// shared.ErrConcurrencyConflict rather than an oversold item.
func PostMovements(ctx context.Context, repos TransactionalRepositories, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	deltas := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range movements {
		deltas[m.ItemID] = deltas[m.ItemID].Add(m.Quantity)
	}
	// fixed order keeps row locks deadlock-free across concurrent postings
	items := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		items = append(items, id)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].String() < items[j].String() })

	levels := make(map[uuid.UUID]*inventory.StockLevel, len(items))
	var short []InsufficientStock
	now := time.Now()
	for _, id := range items {
		level, err := repos.LevelRepo().FindByItem(ctx, id)
		if err != nil {
			return fmt.Errorf("load stock level %s: %w", id, err)
		}
		levels[id] = level

		delta := deltas[id]
		if !delta.IsNegative() {
			continue
		}
		balance, err := repos.MovementRepo().SumQuantity(ctx, id, now)
		if err != nil {
			return fmt.Errorf("sum movements %s: %w", id, err)
		}
		if balance.Add(delta).IsNegative() {
			short = append(short, InsufficientStock{ItemID: id, Balance: balance, Requested: delta.Neg()})
		}
	}
	if len(short) > 0 {
		return shared.ErrInsufficientStock.WithDetails(short)
	}

	if err := repos.MovementRepo().Append(ctx, movements...); err != nil {
		return fmt.Errorf("append movements: %w", err)
	}
	for _, id := range items {
		if err := repos.LevelRepo().Apply(ctx, levels[id], deltas[id]); err != nil {
			return err
		}
	}
	return nil
}

// ReverseSource appends a compensating movement for every forward movement of
// a source document that has not been reversed yet
func ReverseSource(
	ctx context.Context,
	repos TransactionalRepositories,
	sourceType inventory.SourceType,
	sourceID uuid.UUID,
	operatorID uuid.UUID,
	reason string,
) ([]*inventory.StockMovement, error) {
	existing, err := repos.MovementRepo().FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load movements of %s: %w", sourceID, err)
	}
	reversed := make(map[uuid.UUID]struct{})
	for _, m := range existing {
		if m.Reversal && m.ReversesMovementID != nil {
			reversed[*m.ReversesMovementID] = struct{}{}
		}
	}

	compensations := make([]*inventory.StockMovement, 0, len(existing))
	for i := range existing {
		m := &existing[i]
		if m.Reversal {
			continue
		}
		if _, done := reversed[m.ID]; done {
			continue
		}
		rev, err := m.Reverse(operatorID, reason)
		if err != nil {
			return nil, err
		}
		compensations = append(compensations, rev)
	}
	if err := PostMovements(ctx, repos, compensations); err != nil {
		return nil, err
	}
	return compensations, nil
}
