// Package cli implements erpctl, the operator command line for migrations,
// stock projection maintenance and ledger checks.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/bootstrap"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runtime is shared by the subcommands once the root has loaded config
type runtime struct {
	envFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger

	// overridable in tests
	loadConfig func(envFile string) (*config.Config, error)
}

// NewRootCommand builds the erpctl command tree
func NewRootCommand(version string) *cobra.Command {
	rt := &runtime{loadConfig: config.LoadFrom}
	return newRootCommand(rt, version)
}

func newRootCommand(rt *runtime, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "erpctl",
		Short: "Operator tools for the pharma distribution engine",
		Long: `erpctl runs schema migrations and maintenance checks against the
engine's database. Configuration is read the same way as the server:
config.toml, a dotenv file and ERP_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCommand(rt),
		newStockCommand(rt),
		newLedgerCommand(rt),
	)
	return root
}

func (rt *runtime) init() error {
	cfg, err := rt.loadConfig(rt.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if rt.logLevel != "" {
		cfg.Log.Level = rt.logLevel
	}
	lc := logger.FromConfig(cfg)
	lc.Format = "console"
	lc.Output = "stderr"
	log, err := logger.New(lc)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	rt.cfg, rt.log = cfg, log
	return nil
}

// app starts the engine without the HTTP layer and without touching the schema
func (rt *runtime) app(cmd *cobra.Command) (*bootstrap.App, error) {
	return bootstrap.New(cmd.Context(), rt.cfg, rt.log)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseAt reads a YYYY-MM-DD or RFC 3339 instant; a bare date means the end
// of that day in UTC
func parseAt(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return d.Add(24*time.Hour - time.Nanosecond), nil
}
