package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements trade.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID loads an invoice with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate loads an invoice with its lines and takes a row lock on
// postgres. sqlite serializes writers on its own.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	query := r.db.WithContext(ctx).Where("id = ?", id)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findOne(ctx, query)
}

// FindByNumber loads an invoice by its document number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*trade.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("invoice_number = ?", number))
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, query *gorm.DB) (*trade.Invoice, error) {
	var m models.InvoiceModel
	if err := query.First(&m).Error; err != nil {
		return nil, TranslateError(err)
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", m.ID).
		Order("line_no ASC").
		Find(&m.Lines).Error; err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// Find lists invoices without lines and returns the total match count
func (r *GormInvoiceRepository) Find(ctx context.Context, filter trade.InvoiceFilter) ([]trade.Invoice, int64, error) {
	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}), filter)
	if err := paginate(query, filter.Filter).
		Order(orderClause(filter.Filter, InvoiceSortFields, "invoice_date", "DESC")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]trade.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

// FindReturnsOf loads every return (any status) raised against originalID
func (r *GormInvoiceRepository) FindReturnsOf(ctx context.Context, originalID uuid.UUID) ([]trade.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_no ASC")
		}).
		Where("original_invoice_id = ?", originalID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	invoices := make([]trade.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Create inserts a new invoice and its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	m := models.InvoiceModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return TranslateError(err)
	}
	return nil
}

// Update writes the header guarded by version and expected status. Lines are
// replaced only while the stored invoice is a draft.
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *trade.Invoice, expected trade.InvoiceStatus) error {
	m := models.InvoiceModelFromDomain(inv)
	m.UpdatedAt = time.Now().UTC()

	updates := m.HeaderUpdates()
	updates["version"] = inv.Version + 1

	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND version = ? AND status = ?", inv.ID, inv.Version, string(expected)).
		Updates(updates)
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}

	if expected == trade.InvoiceStatusDraft {
		if err := r.db.WithContext(ctx).
			Where("invoice_id = ?", inv.ID).
			Delete(&models.InvoiceLineModel{}).Error; err != nil {
			return err
		}
		if len(m.Lines) > 0 {
			if err := r.db.WithContext(ctx).Create(&m.Lines).Error; err != nil {
				return TranslateError(err)
			}
		}
	}

	inv.Version++
	inv.UpdatedAt = m.UpdatedAt
	return nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter trade.InvoiceFilter) *gorm.DB {
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.PartyID != nil {
		query = query.Where("party_id = ?", *filter.PartyID)
	}
	if filter.OriginalInvoiceID != nil {
		query = query.Where("original_invoice_id = ?", *filter.OriginalInvoiceID)
	}
	if !filter.Range.From.IsZero() {
		query = query.Where("invoice_date >= ?", filter.Range.From.UTC())
	}
	if !filter.Range.To.IsZero() {
		query = query.Where("invoice_date <= ?", filter.Range.To.UTC())
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		query = query.Where(`invoice_number LIKE ? ESCAPE '\'`, escapeLike(s)+"%")
	}
	return query
}

// GormInvoiceSequence issues document numbers from the invoice_sequences table
type GormInvoiceSequence struct {
	db *gorm.DB
}

// NewGormInvoiceSequence creates a new GormInvoiceSequence
func NewGormInvoiceSequence(db *gorm.DB) *GormInvoiceSequence {
	return &GormInvoiceSequence{db: db}
}

// Next atomically increments and returns the counter for prefix and year.
// The upsert holds the row lock until the surrounding transaction ends, so a
// rolled back draft releases its number.
func (s *GormInvoiceSequence) Next(ctx context.Context, prefix string, year int) (int64, error) {
	var next int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO invoice_sequences (prefix, year, current_value) VALUES (?, ?, 1)
		ON CONFLICT (prefix, year) DO UPDATE SET current_value = invoice_sequences.current_value + 1
		RETURNING current_value`,
		prefix, year,
	).Scan(&next).Error
	if err != nil {
		return 0, TranslateError(err)
	}
	return next, nil
}

func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var (
	_ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ trade.NumberSequence    = (*GormInvoiceSequence)(nil)
)
