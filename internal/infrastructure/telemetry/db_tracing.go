package telemetry

import (
	"errors"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled    bool
	LogFullSQL bool   // include bound query variables in spans
	DBName     string // database name attribute
}

// DBTracingFromConfig derives database tracing settings from the app config
func DBTracingFromConfig(cfg *config.Config) DBTracingConfig {
	name := cfg.Database.DBName
	if cfg.Database.Driver == config.DriverSQLite {
		name = cfg.Database.Path
	}
	return DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     name,
	}
}

// RegisterDBTracing installs the otelgorm plugin. A second set of callbacks
// runs just before otelgorm ends each span and flags unique-key conflicts,
// which the engine retries rather than reports.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	registrations := []error{
		cb.Create().After("gorm:create").Before("otel:after:create").Register("conflict_mark:create", markConflict),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("conflict_mark:query", markConflict),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("conflict_mark:update", markConflict),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("conflict_mark:delete", markConflict),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("conflict_mark:raw", markConflict),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.String("db_name", cfg.DBName),
	)
	return nil
}

func markConflict(db *gorm.DB) {
	if db.Error == nil || !errors.Is(db.Error, gorm.ErrDuplicatedKey) {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Bool("db.conflict", true))
}
