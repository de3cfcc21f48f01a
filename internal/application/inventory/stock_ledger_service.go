package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/application/unitofwork"
	"github.com/Erenishere/pharam-sub008/internal/application/validation"
	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const historyPageSize = 500

// StockLedgerService exposes the movement log: appends, balances, history,
// alerts and projection maintenance
type StockLedgerService struct {
	scope          TransactionScope
	movements      inventory.StockMovementRepository
	levels         inventory.StockLevelRepository
	items          catalog.ItemReader
	retry          unitofwork.RetryPolicy
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// StockLedgerOption configures a StockLedgerService
type StockLedgerOption func(*StockLedgerService)

// WithStockRetryPolicy overrides the conflict retry policy
func WithStockRetryPolicy(p unitofwork.RetryPolicy) StockLedgerOption {
	return func(s *StockLedgerService) {
		s.retry = p
	}
}

// WithStockEventPublisher sets the publisher used after commits
func WithStockEventPublisher(p shared.EventPublisher) StockLedgerOption {
	return func(s *StockLedgerService) {
		s.eventPublisher = p
	}
}

// WithStockLogger sets the logger
func WithStockLogger(l *zap.Logger) StockLedgerOption {
	return func(s *StockLedgerService) {
		s.logger = l
	}
}

// NewStockLedgerService creates a new StockLedgerService. movements and levels
// are used for reads outside transactions.
func NewStockLedgerService(
	scope TransactionScope,
	movements inventory.StockMovementRepository,
	levels inventory.StockLevelRepository,
	items catalog.ItemReader,
	opts ...StockLedgerOption,
) *StockLedgerService {
	s := &StockLedgerService{
		scope:     scope,
		movements: movements,
		levels:    levels,
		items:     items,
		retry:     unitofwork.DefaultRetryPolicy(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append writes movements and refreshes the projection in one transaction
func (s *StockLedgerService) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	err := s.retry.Run(ctx, s.logger, "append stock movements", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			return PostMovements(ctx, repos, movements)
		})
	})
	if err != nil {
		return err
	}
	s.AfterCommit(ctx, movements)
	return nil
}

// BalanceAsOf returns the item's balance from movements at or before at
func (s *StockLedgerService) BalanceAsOf(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	if at.IsZero() {
		at = s.now()
	}
	return s.movements.SumQuantity(ctx, itemID, at)
}

// History returns the item's movements in the range with running balances
func (s *StockLedgerService) History(ctx context.Context, itemID uuid.UUID, r shared.DateRange) (*StockHistoryResponse, error) {
	opening := decimal.Zero
	if !r.From.IsZero() {
		var err error
		opening, err = s.movements.SumQuantity(ctx, itemID, r.From.Add(-time.Nanosecond))
		if err != nil {
			return nil, err
		}
	}
	movements, err := s.movementsInRange(ctx, itemID, r)
	if err != nil {
		return nil, err
	}
	lines := inventory.RunningBalance(opening, movements)
	closing := opening
	if len(lines) > 0 {
		closing = lines[len(lines)-1].Balance
	}
	return ToStockHistoryResponse(itemID, r, opening, closing, lines), nil
}

// movementsInRange pages through the item's movements until the range is
// exhausted
func (s *StockLedgerService) movementsInRange(ctx context.Context, itemID uuid.UUID, r shared.DateRange) ([]inventory.StockMovement, error) {
	var all []inventory.StockMovement
	for page := 1; ; page++ {
		batch, err := s.movements.Find(ctx, inventory.MovementFilter{
			Filter: shared.Filter{Page: page, PageSize: historyPageSize},
			ItemID: &itemID,
			Range:  r,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < historyPageSize {
			return all, nil
		}
	}
}

// RecordAdjustment appends a manual adjustment. Adjustments that would drive
// the balance negative are rejected.
func (s *StockLedgerService) RecordAdjustment(ctx context.Context, req AdjustStockRequest) (*MovementResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	if req.Quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	item, err := s.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	var posted *inventory.StockMovement
	var balance decimal.Decimal
	err = s.retry.Run(ctx, s.logger, "record adjustment", func(ctx context.Context) error {
		m, err := inventory.NewStockMovement(item.ID, inventory.MovementTypeAdjustment, req.Quantity,
			inventory.SourceTypeManualAdjustment, uuid.New())
		if err != nil {
			return err
		}
		m.WithReason(req.Reason).WithOperatorID(req.ActorID)
		if req.BatchNumber != "" {
			m.WithBatch(req.BatchNumber, req.ExpiryDate)
		}
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := PostMovements(ctx, repos, []*inventory.StockMovement{m}); err != nil {
				return err
			}
			balance, err = repos.MovementRepo().SumQuantity(ctx, item.ID, s.now())
			if err != nil {
				return err
			}
			posted = m
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("item_id", item.ID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("balance", balance.String()),
		zap.String("reason", req.Reason),
	)
	s.publish(ctx, inventory.NewStockAdjustedEvent(posted, balance))
	s.AfterCommit(ctx, []*inventory.StockMovement{posted})

	resp := ToMovementResponse(*posted)
	return &resp, nil
}

// LowStock reports active items whose log balance is below their minimum or
// above their maximum
func (s *StockLedgerService) LowStock(ctx context.Context) ([]inventory.StockAlert, error) {
	items, err := s.items.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.movements.SumByItem(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]inventory.StockAlert, 0)
	for i := range items {
		if a := inventory.EvaluateStockLevel(&items[i], balances[items[i].ID]); a != nil {
			alerts = append(alerts, *a)
		}
	}
	return alerts, nil
}

// ExpiringBatches lists batches with stock left that expire within the window
func (s *StockLedgerService) ExpiringBatches(ctx context.Context, within time.Duration) ([]inventory.BatchBalance, error) {
	batches, err := s.movements.BatchBalances(ctx, nil)
	if err != nil {
		return nil, err
	}
	return inventory.ExpiringBatches(batches, s.now().Add(within)), nil
}

// SuggestPicks plans which batches to dispatch qty of an item from, first
// expired first out. Batches already expired are never suggested.
func (s *StockLedgerService) SuggestPicks(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) (*inventory.PickPlan, error) {
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	batches, err := s.movements.BatchBalances(ctx, &itemID)
	if err != nil {
		return nil, err
	}
	plan := inventory.PlanPicksFEFO(itemID, batches, qty, s.now())
	return &plan, nil
}

// RebuildProjection recomputes stock levels from the log. A nil itemID
// rebuilds every item that has movements or a projection row.
func (s *StockLedgerService) RebuildProjection(ctx context.Context, itemID *uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "rebuild_projection")
	defer span.End()

	out, err := s.rebuildProjection(ctx, itemID)
	telemetry.RecordError(span, err)
	telemetry.SetAttributes(span, "stock.rebuilt_items", out)
	return out, err
}

func (s *StockLedgerService) rebuildProjection(ctx context.Context, itemID *uuid.UUID) (int, error) {
	rebuilt := 0
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		rebuilt = 0
		derived, err := repos.MovementRepo().SumByItem(ctx)
		if err != nil {
			return err
		}
		targets := make(map[uuid.UUID]decimal.Decimal)
		if itemID != nil {
			targets[*itemID] = derived[*itemID]
		} else {
			for id, q := range derived {
				targets[id] = q
			}
			levels, err := repos.LevelRepo().FindAll(ctx)
			if err != nil {
				return err
			}
			for _, l := range levels {
				if _, ok := targets[l.ItemID]; !ok {
					targets[l.ItemID] = decimal.Zero
				}
			}
		}
		for id, q := range targets {
			if err := repos.LevelRepo().Set(ctx, id, q); err != nil {
				return fmt.Errorf("rebuild stock level %s: %w", id, err)
			}
			rebuilt++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("stock projection rebuilt", zap.Int("items", rebuilt))
	return rebuilt, nil
}

// VerifyProjection compares every projection row with the log
func (s *StockLedgerService) VerifyProjection(ctx context.Context) ([]inventory.ProjectionDrift, error) {
	derived, err := s.movements.SumByItem(ctx)
	if err != nil {
		return nil, err
	}
	levels, err := s.levels.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	projected := make(map[uuid.UUID]decimal.Decimal, len(levels))
	for _, l := range levels {
		projected[l.ItemID] = l.Quantity
	}
	drifts := inventory.CompareProjection(projected, derived)
	if len(drifts) > 0 {
		s.logger.Warn("stock projection drift detected", zap.Int("items", len(drifts)))
	}
	return drifts, nil
}

// AfterCommit publishes movement events and threshold alerts for committed
// movements. Publishing failures are logged, never returned.
func (s *StockLedgerService) AfterCommit(ctx context.Context, movements []*inventory.StockMovement) {
	if s.eventPublisher == nil || len(movements) == 0 {
		return
	}
	seen := make(map[uuid.UUID]struct{})
	for _, m := range movements {
		s.publish(ctx, inventory.NewStockMovedEvent(m))
		seen[m.ItemID] = struct{}{}
	}
	for id := range seen {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			s.logger.Debug("skip threshold check", zap.String("item_id", id.String()), zap.Error(err))
			continue
		}
		balance, err := s.movements.SumQuantity(ctx, id, s.now())
		if err != nil {
			s.logger.Debug("skip threshold check", zap.String("item_id", id.String()), zap.Error(err))
			continue
		}
		if alert := inventory.EvaluateStockLevel(item, balance); alert != nil {
			s.publish(ctx, inventory.NewStockBelowThresholdEvent(*alert))
		}
	}
}

func (s *StockLedgerService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
