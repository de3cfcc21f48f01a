package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockMaintainer is the slice of the stock ledger the jobs use
type StockMaintainer interface {
	VerifyProjection(ctx context.Context) ([]inventory.ProjectionDrift, error)
	RebuildProjection(ctx context.Context, itemID *uuid.UUID) (int, error)
	LowStock(ctx context.Context) ([]inventory.StockAlert, error)
	ExpiringBatches(ctx context.Context, within time.Duration) ([]inventory.BatchBalance, error)
}

// LedgerChecker computes trial balances
type LedgerChecker interface {
	TrialBalance(ctx context.Context, at time.Time) (*finance.TrialBalance, error)
}

// AlertNotifier delivers stock alerts
type AlertNotifier interface {
	SendAlert(ctx context.Context, alert inventory.StockAlert) error
}

// AlertThrottle suppresses repeated alerts for one item
type AlertThrottle interface {
	Allow(ctx context.Context, alert inventory.StockAlert) (bool, error)
}

// MaintenanceExecutor runs the maintenance job kinds
type MaintenanceExecutor struct {
	stock      StockMaintainer
	ledger     LedgerChecker
	notifier   AlertNotifier
	throttle   AlertThrottle
	autoRepair bool
	expiryDays int
	logger     *zap.Logger
	now        func() time.Time
}

// MaintenanceOption configures a MaintenanceExecutor
type MaintenanceOption func(*MaintenanceExecutor)

// WithAutoRepair rebuilds drifting items after a projection check
func WithAutoRepair(on bool) MaintenanceOption {
	return func(e *MaintenanceExecutor) { e.autoRepair = on }
}

// WithAlerts sends low stock alerts found by the sweep. throttle may be nil.
func WithAlerts(notifier AlertNotifier, throttle AlertThrottle) MaintenanceOption {
	return func(e *MaintenanceExecutor) {
		e.notifier = notifier
		e.throttle = throttle
	}
}

// WithExpiryHorizon sets how many days ahead the sweep reports expiring batches
func WithExpiryHorizon(days int) MaintenanceOption {
	return func(e *MaintenanceExecutor) { e.expiryDays = days }
}

// NewMaintenanceExecutor creates the executor
func NewMaintenanceExecutor(stock StockMaintainer, ledger LedgerChecker, logger *zap.Logger, opts ...MaintenanceOption) *MaintenanceExecutor {
	e := &MaintenanceExecutor{
		stock:      stock,
		ledger:     ledger,
		expiryDays: 90,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ JobExecutor = (*MaintenanceExecutor)(nil)

// Execute runs job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Kind {
	case JobKindProjectionCheck:
		return e.checkProjection(ctx)
	case JobKindStockAlertSweep:
		return e.sweepAlerts(ctx)
	case JobKindTrialBalance:
		return e.checkTrialBalance(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}
}

func (e *MaintenanceExecutor) checkProjection(ctx context.Context) error {
	drifts, err := e.stock.VerifyProjection(ctx)
	if err != nil {
		return fmt.Errorf("verify projection: %w", err)
	}
	for _, d := range drifts {
		e.logger.Warn("stock projection drift",
			zap.String("item_id", d.ItemID.String()),
			zap.String("projected", d.Projected.String()),
			zap.String("derived", d.Derived.String()),
		)
		if !e.autoRepair {
			continue
		}
		id := d.ItemID
		if _, err := e.stock.RebuildProjection(ctx, &id); err != nil {
			return fmt.Errorf("rebuild projection for %s: %w", id, err)
		}
	}
	if e.autoRepair && len(drifts) > 0 {
		e.logger.Info("stock projection repaired", zap.Int("items", len(drifts)))
	}
	return nil
}

func (e *MaintenanceExecutor) sweepAlerts(ctx context.Context) error {
	alerts, err := e.stock.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("low stock: %w", err)
	}
	sent := 0
	for _, a := range alerts {
		if e.notifier == nil {
			break
		}
		if e.throttle != nil {
			ok, err := e.throttle.Allow(ctx, a)
			if err != nil {
				e.logger.Warn("alert throttle unavailable", zap.Error(err))
			} else if !ok {
				continue
			}
		}
		if err := e.notifier.SendAlert(ctx, a); err != nil {
			e.logger.Warn("failed to send stock alert",
				zap.String("item_id", a.ItemID.String()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	batches, err := e.stock.ExpiringBatches(ctx, time.Duration(e.expiryDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("expiring batches: %w", err)
	}
	for _, b := range batches {
		e.logger.Warn("batch expiring",
			zap.String("item_id", b.ItemID.String()),
			zap.String("batch_number", b.BatchNumber),
			zap.Timep("expiry_date", b.ExpiryDate),
			zap.String("quantity", b.Quantity.String()),
		)
	}
	e.logger.Info("stock alert sweep finished",
		zap.Int("alerts", len(alerts)),
		zap.Int("sent", sent),
		zap.Int("expiring_batches", len(batches)),
	)
	return nil
}

// an unbalanced ledger is logged, not retried
func (e *MaintenanceExecutor) checkTrialBalance(ctx context.Context) error {
	tb, err := e.ledger.TrialBalance(ctx, e.now())
	if err != nil {
		return fmt.Errorf("trial balance: %w", err)
	}
	if !tb.Balanced() {
		e.logger.Error("scheduled trial balance is unbalanced",
			zap.String("total_debit", tb.TotalDebit.String()),
			zap.String("total_credit", tb.TotalCredit.String()),
			zap.Int("imbalanced_references", len(tb.Imbalances)),
		)
	}
	return nil
}
