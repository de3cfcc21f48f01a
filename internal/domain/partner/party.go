// Package partner describes trading parties (customers and suppliers) as
// seen by the reconciliation engine.
package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyType distinguishes customers from suppliers
type PartyType string

const (
	PartyTypeCustomer PartyType = "customer"
	PartyTypeSupplier PartyType = "supplier"
)

// String returns the string representation of PartyType
func (t PartyType) String() string {
	return string(t)
}

// IsValid returns true if the party type is valid
func (t PartyType) IsValid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// Party is a read-only view of a customer or supplier
type Party struct {
	ID               uuid.UUID
	Name             string
	Type             PartyType
	IsActive         bool
	CreditLimit      *decimal.Decimal // nil or zero means no limit
	PaymentTermsDays int
}

// HasCreditLimit reports whether a positive credit limit applies
func (p *Party) HasCreditLimit() bool {
	return p.CreditLimit != nil && p.CreditLimit.IsPositive()
}

// ExceedsCreditLimit reports whether outstanding plus additional would go
// over the party's limit
func (p *Party) ExceedsCreditLimit(outstanding, additional decimal.Decimal) bool {
	if !p.HasCreditLimit() {
		return false
	}
	return outstanding.Add(additional).GreaterThan(*p.CreditLimit)
}

// PartyReader resolves parties by identity
type PartyReader interface {
	// GetByID returns shared.ErrNotFound when the party does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Party, error)
}

// PartyLocker loads a party under a row lock held until the surrounding
// transaction ends. Credit decisions for one party serialize on it.
type PartyLocker interface {
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Party, error)
}
