package persistence

import (
	"context"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	sumDebit  = "COALESCE(SUM(CASE WHEN entry_type = 'debit' THEN amount ELSE 0 END), 0)"
	sumCredit = "COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE 0 END), 0)"
)

// GormLedgerEntryRepository implements finance.LedgerEntryRepository using GORM.
// Entries are append-only.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append writes entries in a single batch
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entries ...*finance.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return TranslateError(err)
	}
	return nil
}

// FindByTransaction returns both sides of one posting, debit first
func (r *GormLedgerEntryRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]finance.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("entry_type DESC"))
}

// FindByReference returns all entries for a business document
func (r *GormLedgerEntryRepository) FindByReference(ctx context.Context, referenceType string, referenceID uuid.UUID) ([]finance.LedgerEntry, error) {
	return r.find(r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("posted_at ASC, created_at ASC, entry_type DESC"))
}

// Find returns entries matching the filter
func (r *GormLedgerEntryRepository) Find(ctx context.Context, filter finance.EntryFilter) ([]finance.LedgerEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if filter.ReferenceType != "" {
		query = query.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceID != nil {
		query = query.Where("reference_id = ?", *filter.ReferenceID)
	}
	if !filter.Range.From.IsZero() {
		query = query.Where("posted_at >= ?", filter.Range.From.UTC())
	}
	if !filter.Range.To.IsZero() {
		query = query.Where("posted_at <= ?", filter.Range.To.UTC())
	}
	query = paginate(query, filter.Filter).
		Order(orderClause(filter.Filter, LedgerEntrySortFields, "posted_at", "ASC")).
		Order("entry_type DESC").
		Order("id ASC")
	return r.find(query)
}

func (r *GormLedgerEntryRepository) find(query *gorm.DB) ([]finance.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// TotalsForAccount sums an account's entries posted at or before at
func (r *GormLedgerEntryRepository) TotalsForAccount(ctx context.Context, account finance.AccountRef, at time.Time) (finance.AccountTotals, error) {
	var result struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select(sumDebit+" AS debit, "+sumCredit+" AS credit").
		Where("account_id = ? AND account_type = ? AND posted_at <= ?", account.ID, string(account.Type), at.UTC()).
		Scan(&result).Error; err != nil {
		return finance.AccountTotals{}, err
	}
	return finance.AccountTotals{Account: account, Debit: result.Debit, Credit: result.Credit}, nil
}

// TotalsByAccount sums every account's entries posted at or before at
func (r *GormLedgerEntryRepository) TotalsByAccount(ctx context.Context, at time.Time) ([]finance.AccountTotals, error) {
	var rows []struct {
		AccountID   uuid.UUID
		AccountType string
		Debit       decimal.Decimal
		Credit      decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("account_id, account_type, "+sumDebit+" AS debit, "+sumCredit+" AS credit").
		Where("posted_at <= ?", at.UTC()).
		Group("account_id, account_type").
		Order("account_type ASC, account_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.AccountTotals, len(rows))
	for i, row := range rows {
		out[i] = finance.AccountTotals{
			Account: finance.AccountRef{ID: row.AccountID, Type: finance.AccountType(row.AccountType)},
			Debit:   row.Debit,
			Credit:  row.Credit,
		}
	}
	return out, nil
}

// ReferenceImbalances returns references whose debits and credits differ
func (r *GormLedgerEntryRepository) ReferenceImbalances(ctx context.Context, at time.Time) ([]finance.ReferenceImbalance, error) {
	var rows []struct {
		ReferenceType string
		ReferenceID   uuid.UUID
		Debit         decimal.Decimal
		Credit        decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("reference_type, reference_id, "+sumDebit+" AS debit, "+sumCredit+" AS credit").
		Where("posted_at <= ?", at.UTC()).
		Group("reference_type, reference_id").
		Having(sumDebit + " <> " + sumCredit).
		Order("reference_type ASC, reference_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.ReferenceImbalance, len(rows))
	for i, row := range rows {
		out[i] = finance.ReferenceImbalance{
			ReferenceType: row.ReferenceType,
			ReferenceID:   row.ReferenceID,
			Debit:         row.Debit,
			Credit:        row.Credit,
		}
	}
	return out, nil
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ finance.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
