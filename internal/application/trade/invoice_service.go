// Package trade runs the invoice workflows: drafting, confirmation,
// cancellation, payments and returns. Each state change is one unit of work
// covering the invoice, the movement log, the stock projection and the ledger.
package trade

import (
	"context"
	"fmt"
	"time"

	financeapp "github.com/Erenishere/pharam-sub008/internal/application/finance"
	inventoryapp "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	"github.com/Erenishere/pharam-sub008/internal/application/unitofwork"
	"github.com/Erenishere/pharam-sub008/internal/application/validation"
	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared/valueobject"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockNotifier receives committed movements, e.g. for threshold alerts
type StockNotifier interface {
	AfterCommit(ctx context.Context, movements []*inventory.StockMovement)
}

// Option configures the invoice and return services
type Option func(*engine)

// WithEventPublisher sets the publisher used after commits
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(e *engine) {
		e.eventPublisher = p
	}
}

// WithRetryPolicy overrides the conflict retry policy
func WithRetryPolicy(p unitofwork.RetryPolicy) Option {
	return func(e *engine) {
		e.retry = p
	}
}

// WithNumberWidth sets the zero padded width of document sequence numbers
func WithNumberWidth(width int) Option {
	return func(e *engine) {
		if width > 0 {
			e.numberWidth = width
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStockNotifier sets the receiver of committed movements
func WithStockNotifier(n StockNotifier) Option {
	return func(e *engine) {
		e.stock = n
	}
}

// engine holds what invoice and return workflows share
type engine struct {
	scope          TransactionScope
	invoices       trade.InvoiceRepository
	items          catalog.ItemReader
	parties        partner.PartyReader
	stock          StockNotifier
	eventPublisher shared.EventPublisher
	retry          unitofwork.RetryPolicy
	numberWidth    int
	logger         *zap.Logger
	now            func() time.Time
}

func newEngine(
	scope TransactionScope,
	invoices trade.InvoiceRepository,
	items catalog.ItemReader,
	parties partner.PartyReader,
	opts []Option,
) *engine {
	e := &engine{
		scope:       scope,
		invoices:    invoices,
		items:       items,
		parties:     parties,
		retry:       unitofwork.DefaultRetryPolicy(),
		numberWidth: 5,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// nextNumber draws the next document number for the invoice's type and year
func (e *engine) nextNumber(ctx context.Context, repos TransactionalRepositories, inv *trade.Invoice) error {
	year := inv.InvoiceDate.Year()
	seq, err := repos.SequenceRepo().Next(ctx, inv.Type.NumberPrefix(), year)
	if err != nil {
		return fmt.Errorf("next invoice number: %w", err)
	}
	inv.InvoiceNumber = ""
	return inv.AssignNumber(trade.FormatInvoiceNumber(inv.Type.NumberPrefix(), year, seq, e.numberWidth))
}

// afterCommit publishes aggregate events and forwards movements
func (e *engine) afterCommit(ctx context.Context, movements []*inventory.StockMovement, aggregates ...*trade.Invoice) {
	for _, inv := range aggregates {
		if inv == nil {
			continue
		}
		events := inv.GetDomainEvents()
		if e.eventPublisher != nil && len(events) > 0 {
			if err := e.eventPublisher.Publish(ctx, events...); err != nil {
				e.logger.Warn("failed to publish invoice events",
					zap.String("invoice_id", inv.ID.String()),
					zap.Error(err),
				)
			}
		}
		inv.ClearDomainEvents()
	}
	if e.stock != nil && len(movements) > 0 {
		e.stock.AfterCommit(ctx, movements)
	}
}

// InvoiceService handles invoice business operations
type InvoiceService struct {
	*engine
}

// NewInvoiceService creates a new InvoiceService. invoices is used for reads
// outside transactions.
func NewInvoiceService(
	scope TransactionScope,
	invoices trade.InvoiceRepository,
	items catalog.ItemReader,
	parties partner.PartyReader,
	opts ...Option,
) *InvoiceService {
	return &InvoiceService{engine: newEngine(scope, invoices, items, parties, opts)}
}

// lineInputs resolves items and fills price and tax defaults
func (s *InvoiceService) lineInputs(ctx context.Context, invoiceType trade.InvoiceType, reqs []LineRequest) ([]trade.LineInput, error) {
	out := make([]trade.LineInput, 0, len(reqs))
	for idx, r := range reqs {
		item, err := s.items.GetByID(ctx, r.ItemID)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", idx+1, err)
		}
		price := r.UnitPrice
		if price.IsZero() {
			if invoiceType.IsSalesSide() {
				price = item.SalePrice
			} else {
				price = item.PurchasePrice
			}
		}
		rate := item.TaxRate
		if r.TaxRate != nil {
			rate, err = valueobject.NewTaxRate(*r.TaxRate)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", idx+1, err)
			}
		}
		out = append(out, trade.LineInput{
			ItemID:      item.ID,
			ItemCode:    item.Code,
			ItemName:    item.Name,
			Quantity:    r.Quantity,
			UnitPrice:   price,
			Discount:    r.Discount,
			TaxRate:     rate,
			BatchNumber: r.BatchNumber,
			ExpiryDate:  r.ExpiryDate,
		})
	}
	return out, nil
}

// CreateDraft creates a draft invoice with a number from the store sequence
func (s *InvoiceService) CreateDraft(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	invoiceType := trade.InvoiceType(req.Type)
	party, err := s.parties.GetByID(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}
	inputs, err := s.lineInputs(ctx, invoiceType, req.Lines)
	if err != nil {
		return nil, err
	}

	invoiceDate := s.now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}
	inv, err := trade.NewInvoice(invoiceType, party, invoiceDate, req.ActorID)
	if err != nil {
		return nil, err
	}
	if err := inv.ReplaceLines(inputs); err != nil {
		return nil, err
	}
	inv.Notes = req.Notes
	if req.Transport != nil {
		if err := inv.UpdateTransport(*req.Transport); err != nil {
			return nil, err
		}
	}

	err = s.retry.Run(ctx, s.logger, "create invoice", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			if err := s.nextNumber(ctx, repos, inv); err != nil {
				return err
			}
			return repos.InvoiceRepo().Create(ctx, inv)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice draft created",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("type", string(inv.Type)),
	)
	s.afterCommit(ctx, nil, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateDraftLines replaces every line of a draft
func (s *InvoiceService) UpdateDraftLines(ctx context.Context, invoiceID uuid.UUID, req UpdateLinesRequest) (*InvoiceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	current, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	inputs, err := s.lineInputs(ctx, current.Type, req.Lines)
	if err != nil {
		return nil, err
	}

	var inv *trade.Invoice
	err = s.retry.Run(ctx, s.logger, "update draft lines", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if err := loaded.ReplaceLines(inputs); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Update(ctx, loaded, trade.InvoiceStatusDraft); err != nil {
				return err
			}
			inv = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Confirm posts a draft: one movement per line and one ledger pair sized to
// the grand total, all in one transaction
func (s *InvoiceService) Confirm(ctx context.Context, invoiceID, actorID uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "confirm",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()))
	defer span.End()

	out, err := s.confirm(ctx, invoiceID, actorID)
	telemetry.RecordError(span, err)
	return out, err
}

func (s *InvoiceService) confirm(ctx context.Context, invoiceID, actorID uuid.UUID) (*InvoiceResponse, error) {
	var inv *trade.Invoice
	var movements []*inventory.StockMovement
	err := s.retry.Run(ctx, s.logger, "confirm invoice", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			if loaded.Status != trade.InvoiceStatusDraft {
				return shared.NewInvalidStateError(fmt.Sprintf("Cannot confirm invoice in %s status", loaded.Status))
			}
			party, err := s.checkParticipants(ctx, loaded)
			if err != nil {
				return err
			}
			if err := loaded.Confirm(actorID); err != nil {
				return err
			}
			now := s.now()

			if loaded.Type == trade.InvoiceTypeSales && party.HasCreditLimit() {
				// Concurrent sales to the same customer wait here, so each one
				// sees the postings of those committed before it.
				party, err = repos.PartyRepo().GetByIDForUpdate(ctx, party.ID)
				if err != nil {
					return err
				}
				outstanding, err := financeapp.PartyOutstanding(ctx, repos.LedgerRepo(), partyAccount(loaded), now)
				if err != nil {
					return err
				}
				if party.ExceedsCreditLimit(outstanding, loaded.Totals.GrandTotal) {
					return shared.ErrCreditLimitExceeded.WithDetails(map[string]decimal.Decimal{
						"credit_limit": *party.CreditLimit,
						"outstanding":  outstanding,
						"invoice":      loaded.Totals.GrandTotal,
					})
				}
			}

			batch, err := invoiceMovements(loaded, now)
			if err != nil {
				return err
			}
			if err := inventoryapp.PostMovements(ctx, repos, batch); err != nil {
				return err
			}
			if _, err := financeapp.PostPair(ctx, repos.LedgerRepo(), invoicePosting(loaded, now), actorID); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Update(ctx, loaded, trade.InvoiceStatusDraft); err != nil {
				return err
			}
			inv, movements = loaded, batch
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice confirmed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("grand_total", inv.Totals.GrandTotal.String()),
		zap.Int("movements", len(movements)),
	)
	s.afterCommit(ctx, movements, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// checkParticipants verifies that the party and every item may trade
func (s *InvoiceService) checkParticipants(ctx context.Context, inv *trade.Invoice) (*partner.Party, error) {
	party, err := s.parties.GetByID(ctx, inv.PartyID)
	if err != nil {
		return nil, err
	}
	if !party.IsActive {
		return nil, shared.ErrPartyInactive.WithDetails(map[string]string{"party_id": party.ID.String()})
	}
	seen := make(map[uuid.UUID]struct{}, len(inv.Lines))
	var inactive []uuid.UUID
	for _, line := range inv.Lines {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		item, err := s.items.GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if !item.IsActive {
			inactive = append(inactive, item.ID)
		}
	}
	if len(inactive) > 0 {
		return nil, shared.ErrItemInactive.WithDetails(inactive)
	}
	return party, nil
}

// Cancel cancels a draft, or reverses a posted invoice's stock and ledger
// effects. Cancelling a return also frees its quantities on the original.
func (s *InvoiceService) Cancel(ctx context.Context, invoiceID uuid.UUID, req CancelRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "cancel",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()))
	defer span.End()

	out, err := s.cancel(ctx, invoiceID, req)
	telemetry.RecordError(span, err)
	return out, err
}

func (s *InvoiceService) cancel(ctx context.Context, invoiceID uuid.UUID, req CancelRequest) (*InvoiceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	var inv, original *trade.Invoice
	var movements []*inventory.StockMovement
	err := s.retry.Run(ctx, s.logger, "cancel invoice", func(ctx context.Context) error {
		original, movements = nil, nil
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			previous := loaded.Status

			if !loaded.Type.IsReturn() && previous.IsPosted() {
				returns, err := repos.InvoiceRepo().FindReturnsOf(ctx, loaded.ID)
				if err != nil {
					return err
				}
				for i := range returns {
					if !returns[i].IsCancelled() {
						return shared.NewInvalidStateError(
							fmt.Sprintf("Invoice has active return %s", returns[i].InvoiceNumber))
					}
				}
			}
			if err := loaded.Cancel(req.ActorID, req.Reason); err != nil {
				return err
			}

			if previous.IsPosted() {
				reversed, err := inventoryapp.ReverseSource(ctx, repos, inventory.SourceTypeInvoice, loaded.ID, req.ActorID, req.Reason)
				if err != nil {
					return err
				}
				movements = reversed

				entries, err := repos.LedgerRepo().FindByReference(ctx, finance.ReferenceTypeInvoice, loaded.ID)
				if err != nil {
					return err
				}
				narration := fmt.Sprintf("cancel %s", loaded.InvoiceNumber)
				for _, d := range financeapp.ReversePairs(entries, narration, finance.EntryKindInvoice, finance.EntryKindReturn) {
					d.PostedAt = s.now()
					if _, err := financeapp.PostPair(ctx, repos.LedgerRepo(), d, req.ActorID); err != nil {
						return err
					}
				}

				if loaded.Type.IsReturn() && loaded.OriginalInvoiceID != nil {
					orig, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, *loaded.OriginalInvoiceID)
					if err != nil {
						return err
					}
					origStatus := orig.Status
					orig.RevertReturn(loaded.Totals.GrandTotal)
					if err := repos.InvoiceRepo().Update(ctx, orig, origStatus); err != nil {
						return err
					}
					original = orig
				}
			}

			if err := repos.InvoiceRepo().Update(ctx, loaded, previous); err != nil {
				return err
			}
			inv = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice cancelled",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("reversed_movements", len(movements)),
	)
	s.afterCommit(ctx, movements, inv, original)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RecordPayment posts a settlement pair and updates the payment status
func (s *InvoiceService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req PaymentRequest) (*InvoiceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	var inv *trade.Invoice
	err := s.retry.Run(ctx, s.logger, "record payment", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			previous := loaded.Status
			if err := loaded.RecordPayment(req.Amount, req.ActorID); err != nil {
				return err
			}
			if _, err := financeapp.PostPair(ctx, repos.LedgerRepo(), paymentPosting(loaded, req.Amount, s.now()), req.ActorID); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Update(ctx, loaded, previous); err != nil {
				return err
			}
			inv = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("payment_status", string(inv.PaymentStatus)),
	)
	s.afterCommit(ctx, nil, inv)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UpdateTransport replaces dispatch metadata without touching lines
func (s *InvoiceService) UpdateTransport(ctx context.Context, invoiceID uuid.UUID, info trade.TransportInfo) (*InvoiceResponse, error) {
	var inv *trade.Invoice
	err := s.retry.Run(ctx, s.logger, "update transport", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			loaded, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, invoiceID)
			if err != nil {
				return err
			}
			previous := loaded.Status
			if err := loaded.UpdateTransport(info); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Update(ctx, loaded, previous); err != nil {
				return err
			}
			inv = loaded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// Get retrieves an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByNumber retrieves an invoice by document number
func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*InvoiceResponse, error) {
	inv, err := s.invoices.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
	if err := validate.Struct(filter); err != nil {
		return nil, validation.Error(err)
	}
	f := filter.toDomain()
	invoices, total, err := s.invoices.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToInvoiceResponses(invoices), total, f.Page, f.PageSize)
	return &page, nil
}
