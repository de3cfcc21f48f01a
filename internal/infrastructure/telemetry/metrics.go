package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const defaultExportInterval = 60 * time.Second

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider exports metrics to the same collector as traces.
// If telemetry is disabled, the global no-op meter stays in place.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(defaultExportInterval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint))
	return mp, nil
}

// Meter returns a named meter, falling back to the global provider
func (mp *MeterProvider) Meter(name string) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name)
	}
	return mp.provider.Meter(name)
}

// Shutdown flushes pending metrics and stops the provider
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Metric attribute keys
var (
	AttrInvoiceType  = attribute.Key("invoice_type")
	AttrMovementType = attribute.Key("movement_type")
	AttrEntryKind    = attribute.Key("entry_kind")
	AttrAlertKind    = attribute.Key("alert_kind")
	AttrReversal     = attribute.Key("reversal")
)

// EngineMetrics counts committed engine activity. It subscribes to the event
// bus, so it only ever sees effects that were durably recorded.
type EngineMetrics struct {
	invoicesConfirmed metric.Int64Counter
	invoicesCancelled metric.Int64Counter
	returnsCreated    metric.Int64Counter
	payments          metric.Int64Counter
	invoiceValue      metric.Float64Counter
	stockMovements    metric.Int64Counter
	ledgerPostings    metric.Int64Counter
	ledgerAmount      metric.Float64Counter
	stockAlerts       metric.Int64Counter
}

// NewEngineMetrics creates the engine's instruments on meter
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error
	if m.invoicesConfirmed, err = meter.Int64Counter("engine.invoices.confirmed",
		metric.WithDescription("Invoices confirmed")); err != nil {
		return nil, err
	}
	if m.invoicesCancelled, err = meter.Int64Counter("engine.invoices.cancelled",
		metric.WithDescription("Invoices cancelled")); err != nil {
		return nil, err
	}
	if m.returnsCreated, err = meter.Int64Counter("engine.returns.created",
		metric.WithDescription("Return invoices created and posted")); err != nil {
		return nil, err
	}
	if m.payments, err = meter.Int64Counter("engine.payments.recorded",
		metric.WithDescription("Payments recorded against invoices")); err != nil {
		return nil, err
	}
	if m.invoiceValue, err = meter.Float64Counter("engine.invoices.value",
		metric.WithDescription("Grand total of confirmed and return invoices")); err != nil {
		return nil, err
	}
	if m.stockMovements, err = meter.Int64Counter("engine.stock.movements",
		metric.WithDescription("Stock movements appended")); err != nil {
		return nil, err
	}
	if m.ledgerPostings, err = meter.Int64Counter("engine.ledger.postings",
		metric.WithDescription("Double entries posted")); err != nil {
		return nil, err
	}
	if m.ledgerAmount, err = meter.Float64Counter("engine.ledger.amount",
		metric.WithDescription("Amount posted per double entry")); err != nil {
		return nil, err
	}
	if m.stockAlerts, err = meter.Int64Counter("engine.stock.alerts",
		metric.WithDescription("Stock level alerts raised")); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes lists the events EngineMetrics counts
func (m *EngineMetrics) EventTypes() []string {
	return []string{
		trade.EventTypeInvoiceConfirmed,
		trade.EventTypeInvoiceCancelled,
		trade.EventTypeInvoicePaymentRecorded,
		trade.EventTypeReturnInvoiceCreated,
		inventory.EventTypeStockMoved,
		inventory.EventTypeStockBelowThreshold,
		finance.EventTypeDoubleEntryPosted,
	}
}

// Handle records one event
func (m *EngineMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *trade.InvoiceConfirmedEvent:
		attrs := metric.WithAttributes(AttrInvoiceType.String(string(e.Type)))
		m.invoicesConfirmed.Add(ctx, 1, attrs)
		m.invoiceValue.Add(ctx, e.GrandTotal.Abs().InexactFloat64(), attrs)
	case *trade.InvoiceCancelledEvent:
		m.invoicesCancelled.Add(ctx, 1, metric.WithAttributes(
			AttrInvoiceType.String(string(e.Type)),
			AttrReversal.Bool(e.WasPosted),
		))
	case *trade.InvoicePaymentRecordedEvent:
		m.payments.Add(ctx, 1)
	case *trade.ReturnInvoiceCreatedEvent:
		attrs := metric.WithAttributes(AttrInvoiceType.String(string(e.Type)))
		m.returnsCreated.Add(ctx, 1, attrs)
		m.invoiceValue.Add(ctx, e.GrandTotal.Abs().InexactFloat64(), attrs)
	case *inventory.StockMovedEvent:
		m.stockMovements.Add(ctx, 1, metric.WithAttributes(
			AttrMovementType.String(string(e.MovementType)),
			AttrReversal.Bool(e.Reversal),
		))
	case *inventory.StockBelowThresholdEvent:
		m.stockAlerts.Add(ctx, 1, metric.WithAttributes(AttrAlertKind.String(string(e.Alert.Kind))))
	case *finance.DoubleEntryPostedEvent:
		attrs := metric.WithAttributes(AttrEntryKind.String(string(e.Kind)))
		m.ledgerPostings.Add(ctx, 1, attrs)
		m.ledgerAmount.Add(ctx, e.Amount.Abs().InexactFloat64(), attrs)
	}
	return nil
}

var _ shared.EventHandler = (*EngineMetrics)(nil)
