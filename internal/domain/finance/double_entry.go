package finance

import (
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoubleEntry describes one balanced posting: the same amount debited to
// one account and credited to another under a shared transaction id
type DoubleEntry struct {
	Debit         AccountRef
	Credit        AccountRef
	Amount        decimal.Decimal
	Kind          EntryKind
	ReferenceType string
	ReferenceID   uuid.UUID
	Narration     string
	PostedAt      time.Time
}

// Validate checks the posting before entries are built
func (d DoubleEntry) Validate() error {
	if !d.Amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Posting amount must be positive")
	}
	if err := d.Debit.Validate(); err != nil {
		return shared.NewDomainError("INVALID_ACCOUNT", fmt.Sprintf("Debit account: %v", err))
	}
	if err := d.Credit.Validate(); err != nil {
		return shared.NewDomainError("INVALID_ACCOUNT", fmt.Sprintf("Credit account: %v", err))
	}
	if d.Debit.ID == d.Credit.ID {
		return shared.NewDomainError("INVALID_ACCOUNT", "Debit and credit accounts must differ")
	}
	if !d.Kind.IsValid() {
		return shared.NewDomainError("INVALID_ENTRY_KIND", "Invalid entry kind")
	}
	if d.ReferenceID == uuid.Nil {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}
	return nil
}

// Swapped returns the posting with debit and credit roles exchanged, used for
// reversals and returns
func (d DoubleEntry) Swapped() DoubleEntry {
	d.Debit, d.Credit = d.Credit, d.Debit
	return d
}

// Entries validates the posting and returns its two ledger entries
func (d DoubleEntry) Entries(postedBy uuid.UUID) ([]*LedgerEntry, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	txID := uuid.New()
	postedAt := d.PostedAt
	if postedAt.IsZero() {
		postedAt = time.Now()
	}
	var actor *uuid.UUID
	if postedBy != uuid.Nil {
		actor = &postedBy
	}

	build := func(account AccountRef, side EntryType) *LedgerEntry {
		return &LedgerEntry{
			BaseEntity:    shared.NewBaseEntity(),
			TransactionID: txID,
			AccountID:     account.ID,
			AccountType:   account.Type,
			EntryType:     side,
			Amount:        d.Amount,
			Kind:          d.Kind,
			ReferenceType: d.ReferenceType,
			ReferenceID:   d.ReferenceID,
			Narration:     d.Narration,
			PostedBy:      actor,
			PostedAt:      postedAt,
		}
	}
	return []*LedgerEntry{
		build(d.Debit, EntryTypeDebit),
		build(d.Credit, EntryTypeCredit),
	}, nil
}
