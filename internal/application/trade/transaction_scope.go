package trade

import (
	"context"

	inventoryapp "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
)

// TransactionScope runs invoice workflows in one database transaction
// spanning invoices, number sequences, the movement log, the stock level
// projection and the ledger.
type TransactionScope interface {
	// Execute runs fn within a transaction. Returning an error rolls back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a transaction.
// It is also usable wherever stock postings expect inventory repositories.
type TransactionalRepositories interface {
	inventoryapp.TransactionalRepositories
	// InvoiceRepo returns the invoice repository scoped to the transaction
	InvoiceRepo() trade.InvoiceRepository
	// SequenceRepo returns the number sequence scoped to the transaction
	SequenceRepo() trade.NumberSequence
	// LedgerRepo returns the ledger repository scoped to the transaction
	LedgerRepo() finance.LedgerEntryRepository
	// PartyRepo locks parties for credit decisions within the transaction
	PartyRepo() partner.PartyLocker
}

// NoOpTransactionScope runs the function against plain repositories.
// Useful for tests.
type NoOpTransactionScope struct {
	invoiceRepo  trade.InvoiceRepository
	sequenceRepo trade.NumberSequence
	movementRepo inventory.StockMovementRepository
	levelRepo    inventory.StockLevelRepository
	ledgerRepo   finance.LedgerEntryRepository
	partyRepo    partner.PartyLocker
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoiceRepo trade.InvoiceRepository,
	sequenceRepo trade.NumberSequence,
	movementRepo inventory.StockMovementRepository,
	levelRepo inventory.StockLevelRepository,
	ledgerRepo finance.LedgerEntryRepository,
	partyRepo partner.PartyLocker,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoiceRepo:  invoiceRepo,
		sequenceRepo: sequenceRepo,
		movementRepo: movementRepo,
		levelRepo:    levelRepo,
		ledgerRepo:   ledgerRepo,
		partyRepo:    partyRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() trade.InvoiceRepository { return s.invoiceRepo }

// SequenceRepo returns the number sequence.
func (s *NoOpTransactionScope) SequenceRepo() trade.NumberSequence { return s.sequenceRepo }

// MovementRepo returns the movement repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// LevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) LevelRepo() inventory.StockLevelRepository { return s.levelRepo }

// LedgerRepo returns the ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() finance.LedgerEntryRepository { return s.ledgerRepo }

// PartyRepo returns the party locker.
func (s *NoOpTransactionScope) PartyRepo() partner.PartyLocker { return s.partyRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
