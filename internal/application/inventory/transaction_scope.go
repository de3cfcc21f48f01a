package inventory

import (
	"context"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
)

// TransactionScope provides transactional access to stock repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to stock repositories within a transaction.
// The movement log and the stock level projection always share one transaction so the
// projection never drifts from the log it is derived from.
type TransactionalRepositories interface {
	// MovementRepo returns the append-only movement log scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
	// LevelRepo returns the stock level projection scoped to the current transaction
	LevelRepo() inventory.StockLevelRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	movementRepo inventory.StockMovementRepository
	levelRepo    inventory.StockLevelRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	movementRepo inventory.StockMovementRepository,
	levelRepo inventory.StockLevelRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		movementRepo: movementRepo,
		levelRepo:    levelRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// MovementRepo returns the movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// LevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) LevelRepo() inventory.StockLevelRepository {
	return s.levelRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
