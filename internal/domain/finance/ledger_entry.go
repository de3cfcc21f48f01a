package finance

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the side of a ledger entry
type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// String returns the string representation of EntryType
func (t EntryType) String() string {
	return string(t)
}

// IsValid returns true if the entry type is valid
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// EntryKind records which business event produced an entry
type EntryKind string

const (
	EntryKindInvoice  EntryKind = "invoice"
	EntryKindReversal EntryKind = "reversal"
	EntryKindReturn   EntryKind = "return"
	EntryKindPayment  EntryKind = "payment"
	EntryKindManual   EntryKind = "manual"
)

// IsValid returns true if the kind is valid
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindInvoice, EntryKindReversal, EntryKindReturn, EntryKindPayment, EntryKindManual:
		return true
	}
	return false
}

// Reference types for ledger entries
const (
	ReferenceTypeInvoice    = "invoice"
	ReferenceTypeAdjustment = "adjustment"
)

// LedgerEntry is one immutable side of a double-entry posting
type LedgerEntry struct {
	shared.BaseEntity
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	AccountType   AccountType
	EntryType     EntryType
	Amount        decimal.Decimal // always non-negative
	Kind          EntryKind
	ReferenceType string
	ReferenceID   uuid.UUID
	Narration     string
	PostedBy      *uuid.UUID
	PostedAt      time.Time
}

// Account returns the account the entry is posted to
func (e *LedgerEntry) Account() AccountRef {
	return AccountRef{ID: e.AccountID, Type: e.AccountType}
}

// IsDebit returns true for debit entries
func (e *LedgerEntry) IsDebit() bool {
	return e.EntryType == EntryTypeDebit
}

// SignedAmount returns the amount signed by the account's normal side:
// positive when the entry grows the balance
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.EntryType == e.Account().NormalSide() {
		return e.Amount
	}
	return e.Amount.Neg()
}

// AccountTotals aggregates debits and credits of one account
type AccountTotals struct {
	Account AccountRef
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Balance returns the balance signed by the account's nature
func (t AccountTotals) Balance() decimal.Decimal {
	if t.Account.NormalSide() == EntryTypeCredit {
		return t.Credit.Sub(t.Debit)
	}
	return t.Debit.Sub(t.Credit)
}

// BalanceOf computes an account's balance from its entries at or before at
func BalanceOf(account AccountRef, entries []LedgerEntry, at time.Time) decimal.Decimal {
	totals := AccountTotals{Account: account}
	for i := range entries {
		e := &entries[i]
		if e.AccountID != account.ID || e.PostedAt.After(at) {
			continue
		}
		if e.IsDebit() {
			totals.Debit = totals.Debit.Add(e.Amount)
		} else {
			totals.Credit = totals.Credit.Add(e.Amount)
		}
	}
	return totals.Balance()
}

// StatementLine is an entry with the account balance after it
type StatementLine struct {
	Entry   LedgerEntry     `json:"entry"`
	Balance decimal.Decimal `json:"balance"`
}

// Statement lists an account's entries over a range with running balances
type Statement struct {
	Account AccountRef       `json:"account"`
	Range   shared.DateRange `json:"range"`
	Opening decimal.Decimal  `json:"opening"`
	Lines   []StatementLine  `json:"lines"`
	Closing decimal.Decimal  `json:"closing"`
}

// NewStatement builds a statement from the opening balance and the range's
// entries, which must already be in posting order
func NewStatement(account AccountRef, r shared.DateRange, opening decimal.Decimal, entries []LedgerEntry) *Statement {
	st := &Statement{
		Account: account,
		Range:   r,
		Opening: opening,
		Lines:   make([]StatementLine, 0, len(entries)),
	}
	bal := opening
	for _, e := range entries {
		bal = bal.Add(e.SignedAmount())
		st.Lines = append(st.Lines, StatementLine{Entry: e, Balance: bal})
	}
	st.Closing = bal
	return st
}
