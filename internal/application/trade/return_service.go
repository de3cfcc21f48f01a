package trade

import (
	"context"
	"fmt"
	"time"

	financeapp "github.com/Erenishere/pharam-sub008/internal/application/finance"
	inventoryapp "github.com/Erenishere/pharam-sub008/internal/application/inventory"
	"github.com/Erenishere/pharam-sub008/internal/application/validation"
	"github.com/Erenishere/pharam-sub008/internal/domain/catalog"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
	"github.com/Erenishere/pharam-sub008/internal/domain/trade"
	"github.com/Erenishere/pharam-sub008/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains short-lived locks that serialize work on one invoice across
// processes. Correctness never depends on it; it only reduces retries.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// ReturnLockKey is the lock key for returns against an original invoice
func ReturnLockKey(originalID uuid.UUID) string {
	return "invoice-return:" + originalID.String()
}

// ReturnService validates and creates return invoices
type ReturnService struct {
	*engine
	validator *trade.ReturnValidator
	locker    Locker
	lockTTL   time.Duration
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	scope TransactionScope,
	invoices trade.InvoiceRepository,
	items catalog.ItemReader,
	parties partner.PartyReader,
	opts ...Option,
) *ReturnService {
	return &ReturnService{
		engine:    newEngine(scope, invoices, items, parties, opts),
		validator: trade.NewReturnValidator(),
		lockTTL:   10 * time.Second,
	}
}

// SetLocker sets the optional cross-process lock
func (s *ReturnService) SetLocker(locker Locker, ttl time.Duration) {
	s.locker = locker
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

func (r CreateReturnRequest) kind(original *trade.Invoice) trade.InvoiceType {
	if r.Kind != "" {
		return trade.InvoiceType(r.Kind)
	}
	return original.Type.ReturnType()
}

// ValidateReturn checks a proposed return without writing anything
func (s *ReturnService) ValidateReturn(ctx context.Context, req CreateReturnRequest) (*ReturnCheckResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}
	original, err := s.invoices.FindByID(ctx, req.OriginalInvoiceID)
	if err != nil {
		return nil, err
	}
	returns, err := s.invoices.FindReturnsOf(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	kind := req.kind(original)
	lines, err := s.validator.Validate(kind, original, returns, req.domainLines())
	if err != nil {
		return nil, err
	}
	return &ReturnCheckResponse{
		OriginalInvoiceID: original.ID,
		Kind:              string(kind),
		Lines:             lines,
	}, nil
}

// CreateReturn re-validates the return inside a transaction and posts it:
// the confirmed return invoice, its movements, one ledger pair mirroring the
// original with swapped roles, and the original's returned amount. The
// original is written with a version guard, so concurrent returns against the
// same invoice are serialized and re-validated.
func (s *ReturnService) CreateReturn(ctx context.Context, req CreateReturnRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "create",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, req.OriginalInvoiceID.String()))
	defer span.End()

	out, err := s.createReturn(ctx, req)
	telemetry.RecordError(span, err)
	return out, err
}

func (s *ReturnService) createReturn(ctx context.Context, req CreateReturnRequest) (*InvoiceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validation.Error(err)
	}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, ReturnLockKey(req.OriginalInvoiceID), s.lockTTL)
		if err != nil {
			s.logger.Debug("return lock unavailable, relying on version guard",
				zap.String("original_invoice_id", req.OriginalInvoiceID.String()),
				zap.Error(err),
			)
		} else {
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					s.logger.Debug("release return lock", zap.Error(err))
				}
			}()
		}
	}

	var ret, original *trade.Invoice
	var movements []*inventory.StockMovement
	err := s.retry.Run(ctx, s.logger, "create return", func(ctx context.Context) error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			orig, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, req.OriginalInvoiceID)
			if err != nil {
				return err
			}
			returns, err := repos.InvoiceRepo().FindReturnsOf(ctx, orig.ID)
			if err != nil {
				return err
			}
			validated, err := s.validator.Validate(req.kind(orig), orig, returns, req.domainLines())
			if err != nil {
				return err
			}

			r, err := trade.NewReturnInvoice(orig, validated, trade.ReturnMetadata{
				Reason: req.Reason,
				Notes:  req.Notes,
			}, req.ActorID)
			if err != nil {
				return err
			}
			if err := s.nextNumber(ctx, repos, r); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Create(ctx, r); err != nil {
				return err
			}

			now := s.now()
			batch, err := invoiceMovements(r, now)
			if err != nil {
				return err
			}
			if err := inventoryapp.PostMovements(ctx, repos, batch); err != nil {
				return err
			}
			if !r.Totals.GrandTotal.IsZero() {
				if _, err := financeapp.PostPair(ctx, repos.LedgerRepo(), invoicePosting(r, now), req.ActorID); err != nil {
					return err
				}
			}

			origStatus := orig.Status
			if err := orig.ApplyReturn(r.Totals.GrandTotal); err != nil {
				return err
			}
			if err := repos.InvoiceRepo().Update(ctx, orig, origStatus); err != nil {
				return fmt.Errorf("update original invoice: %w", err)
			}

			ret, original, movements = r, orig, batch
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("return invoice created",
		zap.String("return_id", ret.ID.String()),
		zap.String("return_number", ret.InvoiceNumber),
		zap.String("original_invoice_id", original.ID.String()),
		zap.String("grand_total", ret.Totals.GrandTotal.String()),
	)
	s.afterCommit(ctx, movements, ret, original)
	resp := ToInvoiceResponse(ret)
	return &resp, nil
}

// NoopLocker never locks; every Obtain succeeds immediately
type NoopLocker struct{}

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }

// Obtain returns a lock that holds nothing
func (NoopLocker) Obtain(context.Context, string, time.Duration) (Lock, error) {
	return noopLock{}, nil
}

var _ Locker = NoopLocker{}
