package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLevelRepository implements inventory.StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByItem returns the item's projection row, or a zero row with Version 0
func (r *GormStockLevelRepository) FindByItem(ctx context.Context, itemID uuid.UUID) (*inventory.StockLevel, error) {
	var m models.StockLevelModel
	err := r.db.WithContext(ctx).First(&m, "item_id = ?", itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &inventory.StockLevel{ItemID: itemID, Quantity: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll returns every projection row
func (r *GormStockLevelRepository) FindAll(ctx context.Context) ([]inventory.StockLevel, error) {
	var rows []models.StockLevelModel
	if err := r.db.WithContext(ctx).Order("item_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.StockLevel, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Apply adds delta to level with optimistic locking (checks version).
// Version 0 means the row does not exist yet and is inserted.
func (r *GormStockLevelRepository) Apply(ctx context.Context, level *inventory.StockLevel, delta decimal.Decimal) error {
	now := time.Now().UTC()
	quantity := level.Quantity.Add(delta)

	if level.Version == 0 {
		m := &models.StockLevelModel{
			ItemID:    level.ItemID,
			Quantity:  quantity,
			Version:   1,
			UpdatedAt: now,
		}
		if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
			return TranslateError(err)
		}
	} else {
		result := r.db.WithContext(ctx).
			Model(&models.StockLevelModel{}).
			Where("item_id = ? AND version = ?", level.ItemID, level.Version).
			Updates(map[string]any{
				"quantity":   quantity,
				"version":    level.Version + 1,
				"updated_at": now,
			})
		if result.Error != nil {
			return TranslateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
	}

	level.Quantity = quantity
	level.Version++
	level.UpdatedAt = now
	return nil
}

// Set overwrites the item's quantity, creating the row when missing
func (r *GormStockLevelRepository) Set(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error {
	now := time.Now().UTC()
	m := &models.StockLevelModel{
		ItemID:    itemID,
		Quantity:  quantity,
		Version:   1,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   quantity,
				"updated_at": now,
				"version":    gorm.Expr("stock_levels.version + 1"),
			}),
		}).
		Create(m).Error
}

// Ensure GormStockLevelRepository implements StockLevelRepository
var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
