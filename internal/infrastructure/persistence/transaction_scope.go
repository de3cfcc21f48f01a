package persistence

import (
	"context"

	appinv "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	apptrade "github.com/Erenishere/pharam-sub008/internal/application/trade"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements the trade TransactionScope using GORM transactions.
// Invoice, stock and ledger writes of one workflow commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptrade.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return TranslateError(err)
}

// GormInventoryTransactionScope implements the inventory TransactionScope for
// stock-only workflows such as adjustments and projection rebuilds.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope.
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return TranslateError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// SequenceRepo returns the number sequence scoped to the current transaction.
func (r *gormTransactionalRepositories) SequenceRepo() trade.NumberSequence {
	return NewGormInvoiceSequence(r.tx)
}

// MovementRepo returns the movement log scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// LevelRepo returns the stock level projection scoped to the current transaction.
func (r *gormTransactionalRepositories) LevelRepo() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

// LedgerRepo returns the ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() finance.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// PartyRepo returns the party store scoped to the current transaction.
func (r *gormTransactionalRepositories) PartyRepo() partner.PartyLocker {
	return NewGormPartyRepository(r.tx)
}

var (
	_ apptrade.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionScope            = (*GormInventoryTransactionScope)(nil)
	_ apptrade.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appinv.TransactionalRepositories   = (*gormTransactionalRepositories)(nil)
)
