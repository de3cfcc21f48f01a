package inventory

import (
	"context"
	"fmt"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowThresholdHandler handles StockBelowThreshold events
// and forwards them to a notifier, optionally throttled per item
type StockBelowThresholdHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
	throttle AlertThrottle
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert inventory.StockAlert) error
}

// AlertThrottle suppresses repeated alerts for the same item and kind
type AlertThrottle interface {
	// Allow reports whether an alert may be sent now and records it if so
	Allow(ctx context.Context, alert inventory.StockAlert) (bool, error)
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	return &StockBelowThresholdHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// WithThrottle sets the throttle consulted before each alert
func (h *StockBelowThresholdHandler) WithThrottle(throttle AlertThrottle) *StockBelowThresholdHandler {
	h.throttle = throttle
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}
	alert := thresholdEvent.Alert

	h.logger.Warn("stock outside threshold",
		zap.String("item_id", alert.ItemID.String()),
		zap.String("item_code", alert.ItemCode),
		zap.String("kind", string(alert.Kind)),
		zap.String("balance", alert.Balance.String()),
		zap.String("min_stock", alert.MinStock.String()),
		zap.String("max_stock", alert.MaxStock.String()),
	)

	if h.throttle != nil {
		allowed, err := h.throttle.Allow(ctx, alert)
		if err != nil {
			// fall through and notify; a throttle outage must not hide alerts
			h.logger.Debug("alert throttle unavailable", zap.Error(err))
		} else if !allowed {
			h.logger.Debug("stock alert throttled", zap.String("item_id", alert.ItemID.String()))
			return nil
		}
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert notification",
				zap.String("item_id", alert.ItemID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier is a simple notifier that logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert inventory.StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("kind", string(alert.Kind)),
		zap.String("item_code", alert.ItemCode),
		zap.String("item_name", alert.ItemName),
		zap.String("balance", alert.Balance.String()),
	)
	return nil
}

var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
