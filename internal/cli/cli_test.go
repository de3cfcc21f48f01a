package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{Name: "erpctl", Env: "test"},
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         filepath.Join(t.TempDir(), "cli.db"),
			MaxOpenConns: 2,
			MaxIdleConns: 2,
		},
		Log: config.LogConfig{Level: "error", Format: "console", Output: "stderr"},
		Engine: config.EngineConfig{
			MaxRetries:         3,
			RetryBaseDelay:     time.Millisecond,
			RetryMaxDelay:      10 * time.Millisecond,
			ReturnLockTTL:      time.Second,
			NumberWidth:        4,
			AlertThrottle:      time.Minute,
			EventBusBufferSize: 16,
		},
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	rt := &runtime{loadConfig: func(string) (*config.Config, error) { return cfg, nil }}
	cmd := newRootCommand(rt, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	got, err := parseAt("", now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = parseAt("2026-03-31", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 23, 59, 59, 999999999, time.UTC), got)

	got, err = parseAt("2026-03-31T12:00:00+05:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 6, 30, 0, 0, time.UTC), got)

	_, err = parseAt("31/03/2026", now)
	assert.Error(t, err)
}

func TestMigrateCreate(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, nil, "migrate", "create", "add batch recall", "--dir", dir, "-d", "recall flag on batches")
	require.NoError(t, err)

	assert.Contains(t, out, "000001_add_batch_recall.up.sql")
	up, err := os.ReadFile(filepath.Join(dir, "000001_add_batch_recall.up.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(up), "recall flag on batches")
	assert.FileExists(t, filepath.Join(dir, "000001_add_batch_recall.down.sql"))
}

func TestMigrate_PostgresOnlyCommands(t *testing.T) {
	cfg := sqliteConfig(t)

	for _, args := range [][]string{{"migrate", "down"}, {"migrate", "version"}, {"migrate", "force", "3"}} {
		_, err := execute(t, cfg, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "requires the postgres driver")
	}
}

func TestMaintenanceCommands_SQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	out, err := execute(t, cfg, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")

	out, err = execute(t, cfg, "stock", "rebuild")
	require.NoError(t, err)
	assert.JSONEq(t, `{"rebuilt":0}`, out)

	out, err = execute(t, cfg, "stock", "verify")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	out, err = execute(t, cfg, "ledger", "trial-balance", "--at", "2026-03-31")
	require.NoError(t, err)
	var tb finance.TrialBalance
	require.NoError(t, json.Unmarshal([]byte(out), &tb))
	assert.Equal(t, finance.TrialBalanceStatusBalanced, tb.Status)
	assert.True(t, tb.TotalDebit.IsZero())

	_, err = execute(t, cfg, "stock", "rebuild", "--item", "nope")
	assert.ErrorContains(t, err, "invalid --item")

	_, err = execute(t, cfg, "ledger", "verify", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid reference id")
}
