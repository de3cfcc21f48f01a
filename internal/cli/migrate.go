package cli

import (
	"fmt"
	"strconv"

	"github.com/Erenishere/pharam-sub008/internal/bootstrap"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/migration"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back the embedded PostgreSQL migrations. SQLite databases
only support "up", which runs GORM AutoMigrate.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := bootstrap.OpenDatabase(rt.cfg, rt.log)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := bootstrap.MigrateSchema(db, rt.log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: rt.withMigrator(func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: rt.withMigrator(func(cmd *cobra.Command, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps must be a non-zero integer, got %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: rt.withMigrator(func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"version": v, "dirty": dirty})
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Long:  "Clears the dirty flag after a failed migration has been repaired by hand.",
			Args:  cobra.ExactArgs(1),
			RunE: rt.withMigrator(func(cmd *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("version must be an integer, got %q", args[0])
				}
				return m.Force(v)
			}),
		},
		newMigrateCreateCommand(),
	)
	return cmd
}

// migrate create only touches the filesystem
func newMigrateCreateCommand() *cobra.Command {
	var dir, description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Write an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "migrations directory")
	cmd.Flags().StringVarP(&description, "description", "d", "", "comment written into the up file")
	return cmd
}

type migratorFunc func(cmd *cobra.Command, m *migration.Migrator, args []string) error

// withMigrator opens a PostgreSQL migrator for fn and closes it afterwards
func (rt *runtime) withMigrator(fn migratorFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if rt.cfg.Database.Driver != config.DriverPostgres {
			return fmt.Errorf("migrate %s requires the postgres driver, configured %q", cmd.Name(), rt.cfg.Database.Driver)
		}
		db, err := bootstrap.OpenDatabase(rt.cfg, rt.log)
		if err != nil {
			return err
		}
		m, err := newMigrator(db, rt.log)
		if err != nil {
			_ = db.Close()
			return err
		}
		// Close releases both the source and the shared sql.DB
		defer func() {
			if err := m.Close(); err != nil {
				rt.log.Warn("failed to close migrator", zap.Error(err))
			}
		}()
		return fn(cmd, m, args)
	}
}

func newMigrator(db *persistence.Database, log *zap.Logger) (*migration.Migrator, error) {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return migration.New(sqlDB, log)
}
