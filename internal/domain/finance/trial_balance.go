package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceStatus represents the result status of a trial balance check
type TrialBalanceStatus string

const (
	TrialBalanceStatusBalanced   TrialBalanceStatus = "BALANCED"   // Debit equals Credit
	TrialBalanceStatusUnbalanced TrialBalanceStatus = "UNBALANCED" // Debit does not equal Credit
)

// String returns the string representation
func (s TrialBalanceStatus) String() string {
	return string(s)
}

// IsBalanced returns true if the trial balance is balanced
func (s TrialBalanceStatus) IsBalanced() bool {
	return s == TrialBalanceStatusBalanced
}

// ReferenceImbalance reports a reference whose debits and credits differ
type ReferenceImbalance struct {
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
}

// Difference returns debit minus credit
func (r ReferenceImbalance) Difference() decimal.Decimal {
	return r.Debit.Sub(r.Credit)
}

// TrialBalanceLine is one account's totals in a trial balance
type TrialBalanceLine struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountType AccountType     `json:"account_type"`
	AccountName string          `json:"account_name"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// TrialBalance is the result of summing every account at a point in time
type TrialBalance struct {
	AsOf        time.Time            `json:"as_of"`
	Lines       []TrialBalanceLine   `json:"lines"`
	TotalDebit  decimal.Decimal      `json:"total_debit"`
	TotalCredit decimal.Decimal      `json:"total_credit"`
	Status      TrialBalanceStatus   `json:"status"`
	Imbalances  []ReferenceImbalance `json:"imbalances"`
}

// Balanced reports whether totals agree and no reference is out of balance
func (tb *TrialBalance) Balanced() bool {
	return tb.Status.IsBalanced()
}

// NewTrialBalance assembles a trial balance from per-account totals and any
// per-reference imbalances found by the store
func NewTrialBalance(asOf time.Time, totals []AccountTotals, imbalances []ReferenceImbalance) *TrialBalance {
	tb := &TrialBalance{
		AsOf:        asOf,
		Lines:       make([]TrialBalanceLine, 0, len(totals)),
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		Imbalances:  imbalances,
	}
	if tb.Imbalances == nil {
		tb.Imbalances = []ReferenceImbalance{}
	}
	for _, t := range totals {
		tb.Lines = append(tb.Lines, TrialBalanceLine{
			AccountID:   t.Account.ID,
			AccountType: t.Account.Type,
			AccountName: t.Account.Name(),
			Debit:       t.Debit,
			Credit:      t.Credit,
			Balance:     t.Balance(),
		})
		tb.TotalDebit = tb.TotalDebit.Add(t.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(t.Credit)
	}
	sort.SliceStable(tb.Lines, func(i, j int) bool {
		if tb.Lines[i].AccountType != tb.Lines[j].AccountType {
			return tb.Lines[i].AccountType < tb.Lines[j].AccountType
		}
		return tb.Lines[i].AccountName < tb.Lines[j].AccountName
	})

	tb.Status = TrialBalanceStatusUnbalanced
	if tb.TotalDebit.Equal(tb.TotalCredit) && len(tb.Imbalances) == 0 {
		tb.Status = TrialBalanceStatusBalanced
	}
	return tb
}
