// Package finance holds the accounting ledger application service and the
// posting helper shared with invoice workflows.
package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// statementPageSize matches the store's page cap
const statementPageSize = 500

// PostPair validates d and appends its two entries through repo in a single
// batch. Callers inside a transaction pass the transactional repository.
func PostPair(ctx context.Context, repo finance.LedgerEntryRepository, d finance.DoubleEntry, actorID uuid.UUID) (uuid.UUID, error) {
	entries, err := d.Entries(actorID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := repo.Append(ctx, entries...); err != nil {
		return uuid.Nil, fmt.Errorf("append ledger pair: %w", err)
	}
	return entries[0].TransactionID, nil
}

// ReversePairs builds compensating pairs for the postings of the given kinds
// found in one reference's entries. Postings already matched by a reversal
// (same amount, debit on the original credit account) are skipped. Each
// compensation swaps debit and credit and carries kind reversal.
func ReversePairs(entries []finance.LedgerEntry, reversedNarration string, kinds ...finance.EntryKind) []finance.DoubleEntry {
	wanted := make(map[finance.EntryKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	type pair struct {
		debit, credit *finance.LedgerEntry
	}
	order := make([]uuid.UUID, 0)
	pairs := make(map[uuid.UUID]*pair)
	reversedCount := make(map[string]int)
	for i := range entries {
		e := &entries[i]
		if e.Kind == finance.EntryKindReversal {
			if e.IsDebit() {
				reversedCount[pairKey(e.AccountID, e.Amount)]++
			}
			continue
		}
		if !wanted[e.Kind] {
			continue
		}
		p, ok := pairs[e.TransactionID]
		if !ok {
			p = &pair{}
			pairs[e.TransactionID] = p
			order = append(order, e.TransactionID)
		}
		if e.IsDebit() {
			p.debit = e
		} else {
			p.credit = e
		}
	}

	out := make([]finance.DoubleEntry, 0, len(order))
	for _, tx := range order {
		p := pairs[tx]
		if p.debit == nil || p.credit == nil {
			continue
		}
		// a reversal debits the original credit account
		key := pairKey(p.credit.AccountID, p.credit.Amount)
		if reversedCount[key] > 0 {
			reversedCount[key]--
			continue
		}
		out = append(out, finance.DoubleEntry{
			Debit:         p.credit.Account(),
			Credit:        p.debit.Account(),
			Amount:        p.debit.Amount,
			Kind:          finance.EntryKindReversal,
			ReferenceType: p.debit.ReferenceType,
			ReferenceID:   p.debit.ReferenceID,
			Narration:     reversedNarration,
		})
	}
	return out
}

func pairKey(account uuid.UUID, amount decimal.Decimal) string {
	return account.String() + "|" + amount.StringFixed(2)
}

// ReferenceCheck is the result of VerifyReference
type ReferenceCheck struct {
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	Entries       int             `json:"entries"`
	Balanced      bool            `json:"balanced"`
}

// LedgerService is the application service for the accounting ledger
type LedgerService struct {
	repo           finance.LedgerEntryRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repo finance.LedgerEntryRepository, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the publisher for DoubleEntryPosted events
func (s *LedgerService) SetEventPublisher(p shared.EventPublisher) {
	s.eventPublisher = p
}

// PostDoubleEntry writes one balanced pair
func (s *LedgerService) PostDoubleEntry(ctx context.Context, d finance.DoubleEntry, actorID uuid.UUID) (uuid.UUID, error) {
	if d.Kind == "" {
		d.Kind = finance.EntryKindManual
	}
	txID, err := PostPair(ctx, s.repo, d, actorID)
	if err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("double entry posted",
		zap.String("transaction_id", txID.String()),
		zap.String("debit", d.Debit.Name()),
		zap.String("credit", d.Credit.Name()),
		zap.String("amount", d.Amount.String()),
		zap.String("kind", string(d.Kind)),
	)
	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, finance.NewDoubleEntryPostedEvent(txID, d)); err != nil {
			s.logger.Warn("failed to publish event", zap.Error(err))
		}
	}
	return txID, nil
}

// BalanceAsOf returns the account balance signed by the account's nature
func (s *LedgerService) BalanceAsOf(ctx context.Context, account finance.AccountRef, at time.Time) (decimal.Decimal, error) {
	if err := account.Validate(); err != nil {
		return decimal.Zero, shared.NewDomainError("INVALID_ACCOUNT", err.Error())
	}
	if at.IsZero() {
		at = s.now()
	}
	totals, err := s.repo.TotalsForAccount(ctx, account, at)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Balance(), nil
}

// Statement lists the account's entries in the range with running balances
func (s *LedgerService) Statement(ctx context.Context, account finance.AccountRef, r shared.DateRange) (*finance.Statement, error) {
	if err := account.Validate(); err != nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", err.Error())
	}
	opening := decimal.Zero
	if !r.From.IsZero() {
		totals, err := s.repo.TotalsForAccount(ctx, account, r.From.Add(-time.Nanosecond))
		if err != nil {
			return nil, err
		}
		opening = totals.Balance()
	}
	entries, err := s.entriesInRange(ctx, account.ID, r)
	if err != nil {
		return nil, err
	}
	return finance.NewStatement(account, r, opening, entries), nil
}

// entriesInRange reads every entry of the account in the range, one page at
// a time, so the closing balance always covers the whole range
func (s *LedgerService) entriesInRange(ctx context.Context, accountID uuid.UUID, r shared.DateRange) ([]finance.LedgerEntry, error) {
	var all []finance.LedgerEntry
	for page := 1; ; page++ {
		batch, err := s.repo.Find(ctx, finance.EntryFilter{
			Filter:    shared.Filter{Page: page, PageSize: statementPageSize},
			AccountID: &accountID,
			Range:     r,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < statementPageSize {
			return all, nil
		}
	}
}

// TrialBalance sums every account at the given time and lists any reference
// whose debits and credits differ
func (s *LedgerService) TrialBalance(ctx context.Context, at time.Time) (*finance.TrialBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "trial_balance")
	defer span.End()

	out, err := s.trialBalance(ctx, at)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "ledger.balanced", out.Balanced(), "ledger.imbalances", len(out.Imbalances))
	return out, nil
}

func (s *LedgerService) trialBalance(ctx context.Context, at time.Time) (*finance.TrialBalance, error) {
	if at.IsZero() {
		at = s.now()
	}
	totals, err := s.repo.TotalsByAccount(ctx, at)
	if err != nil {
		return nil, err
	}
	imbalances, err := s.repo.ReferenceImbalances(ctx, at)
	if err != nil {
		return nil, err
	}
	tb := finance.NewTrialBalance(at, totals, imbalances)
	if !tb.Balanced() {
		s.logger.Error("trial balance does not balance",
			zap.String("total_debit", tb.TotalDebit.String()),
			zap.String("total_credit", tb.TotalCredit.String()),
			zap.Int("imbalanced_references", len(tb.Imbalances)),
		)
	}
	return tb, nil
}

// VerifyReference checks that one reference's debits equal its credits
func (s *LedgerService) VerifyReference(ctx context.Context, referenceType string, referenceID uuid.UUID) (*ReferenceCheck, error) {
	if referenceType == "" {
		referenceType = finance.ReferenceTypeInvoice
	}
	entries, err := s.repo.FindByReference(ctx, referenceType, referenceID)
	if err != nil {
		return nil, err
	}
	check := &ReferenceCheck{
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Debit:         decimal.Zero,
		Credit:        decimal.Zero,
		Entries:       len(entries),
	}
	for i := range entries {
		if entries[i].IsDebit() {
			check.Debit = check.Debit.Add(entries[i].Amount)
		} else {
			check.Credit = check.Credit.Add(entries[i].Amount)
		}
	}
	check.Balanced = check.Debit.Equal(check.Credit)
	return check, nil
}

// PartyOutstanding returns what a party owes (customers) or is owed
// (suppliers) from the ledger
func PartyOutstanding(ctx context.Context, repo finance.LedgerEntryRepository, account finance.AccountRef, at time.Time) (decimal.Decimal, error) {
	totals, err := repo.TotalsForAccount(ctx, account, at)
	if err != nil {
		return decimal.Zero, fmt.Errorf("party outstanding: %w", err)
	}
	return totals.Balance(), nil
}
