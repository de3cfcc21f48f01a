package persistence

import (
	"context"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockMovementRepository implements inventory.StockMovementRepository using GORM.
// It only ever inserts; there is no update or delete path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append writes movements in order
func (r *GormStockMovementRepository) Append(ctx context.Context, movements ...*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, len(movements))
	for i, m := range movements {
		rows[i] = models.StockMovementModelFromDomain(m)
	}
	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		return TranslateError(err)
	}
	return nil
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	var m models.StockMovementModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySource returns the movements of one source document
func (r *GormStockMovementRepository) FindBySource(ctx context.Context, sourceType inventory.SourceType, sourceID uuid.UUID) ([]inventory.StockMovement, error) {
	return r.find(r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).
		Order("occurred_at ASC, created_at ASC"))
}

// Find returns movements matching the filter in log order unless the filter
// asks for another sort
func (r *GormStockMovementRepository) Find(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovementModel{})
	if filter.ItemID != nil {
		query = query.Where("item_id = ?", *filter.ItemID)
	}
	if filter.MovementType != "" {
		query = query.Where("movement_type = ?", string(filter.MovementType))
	}
	if filter.SourceType != "" {
		query = query.Where("source_type = ?", string(filter.SourceType))
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.BatchNumber != "" {
		query = query.Where("batch_number = ?", filter.BatchNumber)
	}
	if !filter.Range.From.IsZero() {
		query = query.Where("occurred_at >= ?", filter.Range.From.UTC())
	}
	if !filter.Range.To.IsZero() {
		query = query.Where("occurred_at <= ?", filter.Range.To.UTC())
	}
	query = paginate(query, filter.Filter).
		Order(orderClause(filter.Filter, StockMovementSortFields, "occurred_at", "ASC")).
		Order("id ASC")
	return r.find(query)
}

func (r *GormStockMovementRepository) find(query *gorm.DB) ([]inventory.StockMovement, error) {
	var rows []models.StockMovementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SumQuantity returns the balance of itemID from movements at or before at
func (r *GormStockMovementRepository) SumQuantity(ctx context.Context, itemID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("item_id = ? AND occurred_at <= ?", itemID, at.UTC()).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumByItem returns the log balance of every item with at least one movement
func (r *GormStockMovementRepository) SumByItem(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		ItemID uuid.UUID
		Total  decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("item_id, COALESCE(SUM(quantity), 0) AS total").
		Group("item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.ItemID] = row.Total
	}
	return out, nil
}

// BatchBalances returns the remaining quantity of every batch lot that is not
// exhausted. Movements without a batch number are not tracked per batch.
func (r *GormStockMovementRepository) BatchBalances(ctx context.Context, itemID *uuid.UUID) ([]inventory.BatchBalance, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("item_id, batch_number, expiry_date, SUM(quantity) AS quantity").
		Where("batch_number <> ''")
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	}

	var rows []struct {
		ItemID      uuid.UUID
		BatchNumber string
		ExpiryDate  *time.Time
		Quantity    decimal.Decimal
	}
	if err := query.
		Group("item_id, batch_number, expiry_date").
		Having("SUM(quantity) <> 0").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "item_id"}}).
		Order("batch_number ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]inventory.BatchBalance, len(rows))
	for i, row := range rows {
		out[i] = inventory.BatchBalance{
			ItemID:      row.ItemID,
			BatchNumber: row.BatchNumber,
			ExpiryDate:  row.ExpiryDate,
			Quantity:    row.Quantity,
		}
	}
	return out, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
