package persistence

import (
	"context"

	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository reads the item master and lets the catalog owner (and
// fixtures) upsert it
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// GetByID finds an item by its ID
func (r *GormItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var m models.ItemModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return m.ToDomain(), nil
}

// ListActive returns active items ordered by code
func (r *GormItemRepository) ListActive(ctx context.Context) ([]catalog.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Item, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	m := models.ItemModelFromDomain(item)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "name", "is_active", "current_stock", "min_stock", "max_stock",
				"tax_rate", "sale_price", "purchase_price", "updated_at",
			}),
		}).
		Create(m).Error
}

// GormPartyRepository reads customers and suppliers
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// GetByID finds a party by its ID
func (r *GormPartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	var m models.PartyModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return m.ToDomain(), nil
}

// GetByIDForUpdate finds a party and locks its row on postgres
func (r *GormPartyRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*partner.Party, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m models.PartyModel
	if err := query.First(&m, "id = ?", id).Error; err != nil {
		return nil, TranslateError(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates a party
func (r *GormPartyRepository) Save(ctx context.Context, party *partner.Party) error {
	m := models.PartyModelFromDomain(party)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "type", "is_active", "credit_limit", "payment_terms_days", "updated_at",
			}),
		}).
		Create(m).Error
}

var (
	_ catalog.ItemReader  = (*GormItemRepository)(nil)
	_ partner.PartyReader = (*GormPartyRepository)(nil)
	_ partner.PartyLocker = (*GormPartyRepository)(nil)
)
