package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add batch index", "add_batch_index"},
		{"Add-Batch-Index", "add_batch_index"},
		{"ADD_BATCH_INDEX", "add_batch_index"},
		{"add__batch__index", "add_batch_index"},
		{"Ledger Partition 2027", "ledger_partition_2027"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add batch index", "Index stock movements by batch")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_batch_index.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_batch_index.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add batch index")
	assert.Contains(t, string(up), "-- Index stock movements by batch")

	second, err := CreateMigration(dir, "Ledger Partition", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Version)
	assert.FileExists(t, second.DownPath)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	_, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_create_invoices.up.sql":   {Data: []byte("--")},
		"000002_create_invoices.down.sql": {Data: []byte("--")},
		"000001_create_items.up.sql":      {Data: []byte("--")},
		"000010_orphan_up.up.sql":         {Data: []byte("--")},
		"README.md":                       {Data: []byte("docs")},
		"notes.sql":                       {Data: []byte("--")},
		"abc_bad_version.up.sql":          {Data: []byte("--")},
		"archive/000003_old.up.sql":       {Data: []byte("--")},
	}

	entries, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Version: 1, Name: "000001_create_items"},
		{Version: 2, Name: "000002_create_invoices", HasDown: true},
		{Version: 10, Name: "000010_orphan_up"},
	}, entries)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	entries, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
