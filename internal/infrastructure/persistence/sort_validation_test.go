package persistence

import (
	"testing"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	for in, want := range map[string]string{
		"":        "DESC",
		"asc":     "ASC",
		"  ASC  ": "ASC",
		"desc":    "DESC",
		"up":      "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(in), "input %q", in)
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "grand_total", ValidateSortField(" grand_total ", InvoiceSortFields, "invoice_date"))
	assert.Equal(t, "invoice_date", ValidateSortField("", InvoiceSortFields, "invoice_date"))
	assert.Equal(t, "invoice_date", ValidateSortField("GRAND_TOTAL", InvoiceSortFields, "invoice_date"), "names are case sensitive")
	assert.Equal(t, "occurred_at", ValidateSortField("narration", StockMovementSortFields, "occurred_at"))
}

func TestSortWhitelistsShareAuditColumns(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"invoices":        InvoiceSortFields,
		"stock movements": StockMovementSortFields,
		"ledger entries":  LedgerEntrySortFields,
	} {
		for field := range CommonSortFields {
			assert.True(t, whitelist[field], "%s can sort by %s", name, field)
		}
	}
}

// Only whitelisted identifiers reach ORDER BY, so crafted input falls back
// to the default column and direction.
func TestSortInputCannotInjectSQL(t *testing.T) {
	payloads := []string{
		"invoice_number; DROP TABLE ledger_entries;--",
		"grand_total' OR '1'='1",
		"status UNION SELECT * FROM parties",
		"(SELECT credit_limit FROM parties)",
		"invoice_date/**/;DELETE FROM stock_movements",
		"invoice_date\n; TRUNCATE invoices",
	}
	for _, p := range payloads {
		assert.Equal(t, "invoice_date", ValidateSortField(p, InvoiceSortFields, "invoice_date"), p)
		assert.Equal(t, "DESC", ValidateSortOrder(p), p)
	}
}

func TestOrderClause(t *testing.T) {
	t.Run("defaults when filter is empty", func(t *testing.T) {
		got := orderClause(shared.Filter{}, InvoiceSortFields, "invoice_date", "DESC")
		assert.Equal(t, "invoice_date DESC, created_at DESC", got)
	})

	t.Run("uses whitelisted field and direction", func(t *testing.T) {
		got := orderClause(shared.Filter{OrderBy: "grand_total", OrderDir: "asc"}, InvoiceSortFields, "invoice_date", "DESC")
		assert.Equal(t, "grand_total ASC, created_at ASC", got)
	})

	t.Run("rejects unknown field", func(t *testing.T) {
		got := orderClause(shared.Filter{OrderBy: "password"}, LedgerEntrySortFields, "posted_at", "ASC")
		assert.Equal(t, "posted_at ASC, created_at ASC", got)
	})

	t.Run("created_at is not repeated", func(t *testing.T) {
		got := orderClause(shared.Filter{OrderBy: "created_at", OrderDir: "desc"}, CommonSortFields, "id", "ASC")
		assert.Equal(t, "created_at DESC", got)
	})
}
