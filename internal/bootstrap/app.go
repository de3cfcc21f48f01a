// Package bootstrap wires configuration, storage, the event bus and the
// application services into a runnable engine. The HTTP server and the
// operator CLI both start from here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	appfinance "github.com/Erenishere/pharam-sub008/internal/application/finance"
	appinv "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	apptrade "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/Erenishere/pharam-sub008/internal/application/unitofwork"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/cache"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/event"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/migration"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/scheduler"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/handler"
	"github.com/Erenishere/pharam-sub008/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const meterName = "pharma-engine"

// App holds the wired engine
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB     *persistence.Database
	Events *event.InMemoryEventBus
	Cache  *cache.Components // nil when redis is disabled or unreachable

	Tracer *telemetry.TracerProvider
	Meter  *telemetry.MeterProvider
	Logs   *telemetry.LoggerProvider

	Invoices *apptrade.InvoiceService
	Returns  *apptrade.ReturnService
	Stock    *appinv.StockLedgerService
	Ledger   *appfinance.LedgerService

	Scheduler *scheduler.Scheduler // nil until StartScheduler
	trigger   *scheduler.Trigger
	throttle  appinv.AlertThrottle

	version string
}

// Option configures New
type Option func(*options)

type options struct {
	migrate bool
	version string
}

// WithSchema brings the schema up to date while starting: migrations on
// PostgreSQL, AutoMigrate on SQLite.
func WithSchema() Option {
	return func(o *options) { o.migrate = true }
}

// WithVersion sets the build version reported by the system endpoints
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// New connects to storage and builds every service. The event bus is started;
// Close stops it and releases the rest.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (_ *App, err error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: log, version: o.version}
	defer func() {
		if err != nil {
			_ = app.Close(context.Background())
		}
	}()

	tel := telemetry.FromConfig(cfg.Telemetry)
	if app.Tracer, err = telemetry.NewTracerProvider(ctx, tel, log); err != nil {
		return nil, err
	}
	if app.Meter, err = telemetry.NewMeterProvider(ctx, tel, log); err != nil {
		return nil, err
	}
	if app.Logs, err = telemetry.NewLoggerProvider(ctx, tel, log); err != nil {
		return nil, err
	}
	log = app.Logs.Bridge(log)
	app.Logger = log

	if app.DB, err = OpenDatabase(cfg, log); err != nil {
		return nil, err
	}
	if o.migrate {
		if err = MigrateSchema(app.DB, log); err != nil {
			return nil, err
		}
	}
	if err = telemetry.RegisterDBTracing(app.DB.DB, telemetry.DBTracingFromConfig(cfg), log); err != nil {
		return nil, err
	}

	app.Cache = cache.Connect(ctx, cfg.Redis, cfg.Engine.AlertThrottle, log)

	app.Events = event.NewInMemoryEventBus(log, cfg.Engine.EventBusBufferSize)
	if err = app.subscribe(); err != nil {
		return nil, err
	}

	app.buildServices()

	if err = app.Events.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start event bus: %w", err)
	}
	return app, nil
}

// OpenDatabase connects with a zap backed GORM logger
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBLogFullSQL {
		gormOpts = append(gormOpts, logger.WithFullSQL(true))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", db.Driver))
	return db, nil
}

// MigrateSchema applies the embedded migrations on PostgreSQL and
// AutoMigrate on SQLite.
func MigrateSchema(db *persistence.Database, log *zap.Logger) error {
	if db.Driver == config.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// closing the migrator would close the shared pool
	return m.Up()
}

func (a *App) subscribe() error {
	metrics, err := telemetry.NewEngineMetrics(a.Meter.Meter(meterName))
	if err != nil {
		return fmt.Errorf("failed to create engine metrics: %w", err)
	}
	a.Events.Subscribe(metrics, metrics.EventTypes()...)

	a.throttle = cache.NewMemoryAlertThrottle(a.Config.Engine.AlertThrottle)
	if a.Cache != nil {
		a.throttle = a.Cache.Throttle
	}
	alerts := appinv.NewStockBelowThresholdHandler(a.Logger).
		WithNotifier(appinv.NewLoggingStockAlertNotifier(a.Logger)).
		WithThrottle(a.throttle)
	a.Events.Subscribe(alerts, alerts.EventTypes()...)
	return nil
}

func (a *App) buildServices() {
	db := a.DB.DB
	retry := unitofwork.RetryPolicy{
		MaxRetries: a.Config.Engine.MaxRetries,
		BaseDelay:  a.Config.Engine.RetryBaseDelay,
		MaxDelay:   a.Config.Engine.RetryMaxDelay,
	}
	items := persistence.NewGormItemRepository(db)
	parties := persistence.NewGormPartyRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)

	a.Stock = appinv.NewStockLedgerService(
		persistence.NewGormInventoryTransactionScope(db),
		persistence.NewGormStockMovementRepository(db),
		persistence.NewGormStockLevelRepository(db),
		items,
		appinv.WithStockRetryPolicy(retry),
		appinv.WithStockEventPublisher(a.Events),
		appinv.WithStockLogger(a.Logger),
	)

	tradeOpts := []apptrade.Option{
		apptrade.WithRetryPolicy(retry),
		apptrade.WithLogger(a.Logger),
		apptrade.WithEventPublisher(a.Events),
		apptrade.WithStockNotifier(a.Stock),
		apptrade.WithNumberWidth(a.Config.Engine.NumberWidth),
	}
	scope := persistence.NewGormTransactionScope(db)
	a.Invoices = apptrade.NewInvoiceService(scope, invoiceRepo, items, parties, tradeOpts...)
	a.Returns = apptrade.NewReturnService(scope, invoiceRepo, items, parties, tradeOpts...)
	if a.Cache != nil {
		a.Returns.SetLocker(a.Cache.Locker, a.Config.Engine.ReturnLockTTL)
	} else {
		a.Returns.SetLocker(apptrade.NoopLocker{}, a.Config.Engine.ReturnLockTTL)
	}

	a.Ledger = appfinance.NewLedgerService(persistence.NewGormLedgerEntryRepository(db), a.Logger)
	a.Ledger.SetEventPublisher(a.Events)
}

// StartScheduler starts the background maintenance jobs when enabled. The
// alert sweep shares the throttle of the event driven alerts.
func (a *App) StartScheduler(ctx context.Context) error {
	cfg := a.Config.Scheduler
	if !cfg.Enabled {
		a.Logger.Info("maintenance scheduler disabled")
		return nil
	}
	exec := scheduler.NewMaintenanceExecutor(a.Stock, a.Ledger, a.Logger,
		scheduler.WithAutoRepair(cfg.AutoRepairProjection),
		scheduler.WithAlerts(appinv.NewLoggingStockAlertNotifier(a.Logger), a.throttle),
		scheduler.WithExpiryHorizon(a.Config.Engine.ExpiryWarningDays),
	)
	a.Scheduler = scheduler.NewScheduler(scheduler.ConfigFrom(cfg), exec, a.Logger)
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	a.trigger = scheduler.NewTrigger(scheduler.IntervalsFrom(cfg), a.Scheduler, a.Logger)
	return a.trigger.Start(ctx)
}

// Handler builds the HTTP engine with every route registered
func (a *App) Handler() (*gin.Engine, error) {
	cfg := a.Config
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:     cfg.Telemetry.ServiceName,
		Tracing:         cfg.Telemetry.Enabled,
		Meter:           a.Meter.Meter(meterName),
		CORSOrigins:     cfg.HTTP.CORSAllowOrigins,
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		MaxBodySize:     cfg.HTTP.MaxBodySize,
		RateLimit:       cfg.HTTP.RateLimit,
		RateLimitWindow: cfg.HTTP.RateLimitWindow,
	}, a.Logger)
	if err != nil {
		return nil, err
	}

	router.NewRouter(engine).Register(
		handler.NewSystemHandler(cfg.App.Name, a.version, a.DB, a.Events, a.Logger),
		handler.NewInvoiceHandler(a.Invoices, a.Logger),
		handler.NewReturnHandler(a.Returns, a.Logger),
		handler.NewStockHandler(a.Stock, cfg.Engine.ExpiryWarningDays, a.Logger),
		handler.NewLedgerHandler(a.Ledger, a.Logger),
	).Setup()
	return engine, nil
}

// Close drains the event bus and releases connections in reverse order of
// creation. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.trigger != nil {
		if err := a.trigger.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler trigger: %w", err))
		}
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}
	if a.Events != nil {
		if err := a.Events.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if a.Logs != nil {
		if err := a.Logs.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Meter != nil {
		if err := a.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Tracer != nil {
		if err := a.Tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
