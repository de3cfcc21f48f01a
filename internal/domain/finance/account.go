package finance

import (
	"fmt"

	"github.com/google/uuid"
)

// AccountType classifies a ledger account
type AccountType string

const (
	AccountTypeCustomer AccountType = "customer"
	AccountTypeSupplier AccountType = "supplier"
	AccountTypeControl  AccountType = "control"
)

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCustomer, AccountTypeSupplier, AccountTypeControl:
		return true
	}
	return false
}

// ControlAccount names a well-known internal account
type ControlAccount string

const (
	ControlInventory ControlAccount = "INVENTORY"
	ControlSales     ControlAccount = "SALES"
	ControlCash      ControlAccount = "CASH"
)

var controlAccountIDs = map[ControlAccount]uuid.UUID{
	ControlInventory: uuid.MustParse("00000000-0000-0000-0000-00000000c001"),
	ControlSales:     uuid.MustParse("00000000-0000-0000-0000-00000000c002"),
	ControlCash:      uuid.MustParse("00000000-0000-0000-0000-00000000c003"),
}

// ID returns the fixed identity of the control account
func (c ControlAccount) ID() uuid.UUID {
	return controlAccountIDs[c]
}

// Ref returns the account reference for the control account
func (c ControlAccount) Ref() AccountRef {
	return AccountRef{ID: c.ID(), Type: AccountTypeControl}
}

// ControlAccountByID resolves a control account from its identity
func ControlAccountByID(id uuid.UUID) (ControlAccount, bool) {
	for name, cid := range controlAccountIDs {
		if cid == id {
			return name, true
		}
	}
	return "", false
}

// ControlAccounts lists every control account
func ControlAccounts() []ControlAccount {
	return []ControlAccount{ControlInventory, ControlSales, ControlCash}
}

// AccountRef identifies one side of a posting
type AccountRef struct {
	ID   uuid.UUID   `json:"id"`
	Type AccountType `json:"type"`
}

// CustomerAccount returns the ledger account of a customer
func CustomerAccount(partyID uuid.UUID) AccountRef {
	return AccountRef{ID: partyID, Type: AccountTypeCustomer}
}

// SupplierAccount returns the ledger account of a supplier
func SupplierAccount(partyID uuid.UUID) AccountRef {
	return AccountRef{ID: partyID, Type: AccountTypeSupplier}
}

// Validate checks that the reference names a usable account
func (a AccountRef) Validate() error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("account id is empty")
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("invalid account type %q", a.Type)
	}
	if a.Type == AccountTypeControl {
		if _, ok := ControlAccountByID(a.ID); !ok {
			return fmt.Errorf("unknown control account %s", a.ID)
		}
	}
	return nil
}

// NormalSide returns the side on which the account's balance grows.
// Customers, INVENTORY and CASH are debit-normal; suppliers and SALES are
// credit-normal.
func (a AccountRef) NormalSide() EntryType {
	switch a.Type {
	case AccountTypeSupplier:
		return EntryTypeCredit
	case AccountTypeControl:
		if a.ID == ControlSales.ID() {
			return EntryTypeCredit
		}
	}
	return EntryTypeDebit
}

// Name returns a display name for control accounts and the id otherwise
func (a AccountRef) Name() string {
	if c, ok := ControlAccountByID(a.ID); ok && a.Type == AccountTypeControl {
		return string(c)
	}
	return a.Type.String() + ":" + a.ID.String()
}
