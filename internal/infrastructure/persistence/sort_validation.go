package persistence

import (
	"strings"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"invoice_date":   true,
	"due_date":       true,
	"grand_total":    true,
	"status":         true,
	"payment_status": true,
}

// StockMovementSortFields contains allowed sort fields for stock movements
var StockMovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"occurred_at":   true,
	"quantity":      true,
	"movement_type": true,
	"batch_number":  true,
}

// LedgerEntrySortFields contains allowed sort fields for ledger entries
var LedgerEntrySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"posted_at":  true,
	"amount":     true,
	"kind":       true,
}

// orderClause builds a whitelisted ORDER BY with created_at as tie breaker.
// Paged callers add id so pages never overlap.
func orderClause(filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) string {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultDir
	if strings.TrimSpace(filter.OrderDir) != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	if field == "created_at" {
		return field + " " + dir
	}
	return field + " " + dir + ", created_at " + dir
}

// paginate applies offset and limit when the filter asks for a page
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page <= 0 && filter.PageSize <= 0 {
		return query
	}
	return query.Offset(filter.Offset()).Limit(filter.Limit())
}
