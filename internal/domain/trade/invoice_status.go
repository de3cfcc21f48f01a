package trade

import (
	"github.com/Erenishere/pharam-sub008/internal/domain/partner"
)

// InvoiceType represents the commercial direction of an invoice
type InvoiceType string

const (
	InvoiceTypeSales          InvoiceType = "sales"
	InvoiceTypePurchase       InvoiceType = "purchase"
	InvoiceTypeReturnSales    InvoiceType = "return_sales"
	InvoiceTypeReturnPurchase InvoiceType = "return_purchase"
)

// IsValid checks if the type is a valid InvoiceType
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeSales, InvoiceTypePurchase, InvoiceTypeReturnSales, InvoiceTypeReturnPurchase:
		return true
	}
	return false
}

// String returns the string representation of InvoiceType
func (t InvoiceType) String() string {
	return string(t)
}

// IsReturn returns true for return invoice types
func (t InvoiceType) IsReturn() bool {
	return t == InvoiceTypeReturnSales || t == InvoiceTypeReturnPurchase
}

// IsSalesSide returns true for sales and sales returns
func (t InvoiceType) IsSalesSide() bool {
	return t == InvoiceTypeSales || t == InvoiceTypeReturnSales
}

// PartyType returns the party type an invoice of this type must reference
func (t InvoiceType) PartyType() partner.PartyType {
	if t.IsSalesSide() {
		return partner.PartyTypeCustomer
	}
	return partner.PartyTypeSupplier
}

// NumberPrefix returns the document number prefix
func (t InvoiceType) NumberPrefix() string {
	switch t {
	case InvoiceTypeSales:
		return "SI"
	case InvoiceTypePurchase:
		return "PI"
	case InvoiceTypeReturnSales:
		return "SR"
	case InvoiceTypeReturnPurchase:
		return "PR"
	}
	return "XX"
}

// ReturnType returns the return type for a forward type, or the empty type
func (t InvoiceType) ReturnType() InvoiceType {
	switch t {
	case InvoiceTypeSales:
		return InvoiceTypeReturnSales
	case InvoiceTypePurchase:
		return InvoiceTypeReturnPurchase
	}
	return ""
}

// OriginalType returns the forward type a return type reverses, or the empty type
func (t InvoiceType) OriginalType() InvoiceType {
	switch t {
	case InvoiceTypeReturnSales:
		return InvoiceTypeSales
	case InvoiceTypeReturnPurchase:
		return InvoiceTypePurchase
	}
	return ""
}

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusConfirmed InvoiceStatus = "confirmed"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusConfirmed, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusConfirmed || target == InvoiceStatusCancelled
	case InvoiceStatusConfirmed:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsPosted returns true when the invoice has stock and ledger effects
func (s InvoiceStatus) IsPosted() bool {
	return s == InvoiceStatusConfirmed || s == InvoiceStatusPaid
}

// PaymentStatus tracks settlement of a confirmed invoice
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}
