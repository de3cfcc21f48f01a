package migration

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/Erenishere/pharam-sub008/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm/schema"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.EqualValues(t, i+1, e.Version, "versions are contiguous")
		assert.True(t, e.HasDown, "%s has a down migration", e.Name)
	}
}

// Every table GORM maps must be created by some migration.
func TestEmbeddedMigrationsCoverModels(t *testing.T) {
	var ddl strings.Builder
	entries, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	for _, e := range entries {
		b, err := migrations.FS.ReadFile(e.Name + ".up.sql")
		require.NoError(t, err)
		ddl.Write(b)
	}

	for _, m := range models.All() {
		tabler, ok := m.(schema.Tabler)
		require.True(t, ok, "%T declares TableName", m)
		assert.Contains(t, ddl.String(), "CREATE TABLE IF NOT EXISTS "+tabler.TableName()+" (")
	}
}

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("reconciliation_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	return db
}

func TestMigrator_UpAndDown(t *testing.T) {
	db := startPostgres(t)
	m, err := New(db, zaptest.NewLogger(t))
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, m.Up())
	require.NoError(t, m.Up(), "second Up is a no-op")

	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 4, version)
	assert.False(t, dirty)

	var tables int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name IN
		('items','parties','invoices','invoice_lines','invoice_sequences','stock_movements','stock_levels','ledger_entries')`).Scan(&tables))
	assert.Equal(t, 8, tables)

	_, err = db.Exec(`INSERT INTO ledger_entries
		(id, created_at, updated_at, transaction_id, account_id, account_type, entry_type, amount, kind, reference_type, reference_id, posted_at)
		VALUES (gen_random_uuid(), now(), now(), gen_random_uuid(), gen_random_uuid(), 'inventory', 'debit', 10, 'manual', 'adjustment', gen_random_uuid(), now())`)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE ledger_entries SET amount = 20`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	require.NoError(t, m.Steps(-1))
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)

	require.NoError(t, m.Close())
}
