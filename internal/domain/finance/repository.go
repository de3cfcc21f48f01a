package finance

import (
	"context"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryFilter narrows ledger entry queries
type EntryFilter struct {
	shared.Filter
	AccountID     *uuid.UUID
	Kind          EntryKind
	ReferenceType string
	ReferenceID   *uuid.UUID
	Range         shared.DateRange
}

// LedgerEntryRepository is append-only
type LedgerEntryRepository interface {
	// Append writes entries in a single batch
	Append(ctx context.Context, entries ...*LedgerEntry) error

	// FindByTransaction returns both sides of one posting
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]LedgerEntry, error)

	// FindByReference returns all entries for a business document
	FindByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) ([]LedgerEntry, error)

	// Find returns entries ordered by PostedAt then CreatedAt
	Find(ctx context.Context, filter EntryFilter) ([]LedgerEntry, error)

	// TotalsForAccount sums an account's entries posted at or before at
	TotalsForAccount(ctx context.Context, account AccountRef, at time.Time) (AccountTotals, error)

	// TotalsByAccount sums every account's entries posted at or before at
	TotalsByAccount(ctx context.Context, at time.Time) ([]AccountTotals, error)

	// ReferenceImbalances returns references whose debits and credits differ
	ReferenceImbalances(ctx context.Context, at time.Time) ([]ReferenceImbalance, error)
}
