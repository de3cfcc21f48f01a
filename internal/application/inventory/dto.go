package inventory

import (
	"time"

	"github.com/Erenishere/pharam-sub008/internal/application/validation"
	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/Erenishere/pharam-sub008/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validation.New()

// AdjustStockRequest represents a manual stock adjustment. Quantity is signed.
type AdjustStockRequest struct {
	ItemID      uuid.UUID       `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"required,max=255"`
	BatchNumber string          `json:"batch_number" validate:"max=50"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	ActorID     uuid.UUID       `json:"actor_id" validate:"required"`
}

// MovementResponse represents a stock movement in API responses
type MovementResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ItemID             uuid.UUID       `json:"item_id"`
	MovementType       string          `json:"movement_type"`
	Quantity           decimal.Decimal `json:"quantity"`
	Reversal           bool            `json:"reversal"`
	ReversesMovementID *uuid.UUID      `json:"reverses_movement_id,omitempty"`
	SourceType         string          `json:"source_type"`
	SourceID           uuid.UUID       `json:"source_id"`
	SourceLineID       *uuid.UUID      `json:"source_line_id,omitempty"`
	BatchNumber        string          `json:"batch_number,omitempty"`
	ExpiryDate         *time.Time      `json:"expiry_date,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// HistoryLineResponse is a movement with the balance after it
type HistoryLineResponse struct {
	MovementResponse
	Balance decimal.Decimal `json:"balance"`
}

// StockHistoryResponse is an item's movement history over a range
type StockHistoryResponse struct {
	ItemID  uuid.UUID             `json:"item_id"`
	From    *time.Time            `json:"from,omitempty"`
	To      *time.Time            `json:"to,omitempty"`
	Opening decimal.Decimal       `json:"opening"`
	Closing decimal.Decimal       `json:"closing"`
	Lines   []HistoryLineResponse `json:"lines"`
}

// ToMovementResponse converts a domain movement to a response
func ToMovementResponse(m inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		ItemID:             m.ItemID,
		MovementType:       string(m.MovementType),
		Quantity:           m.Quantity,
		Reversal:           m.Reversal,
		ReversesMovementID: m.ReversesMovementID,
		SourceType:         string(m.SourceType),
		SourceID:           m.SourceID,
		SourceLineID:       m.SourceLineID,
		BatchNumber:        m.BatchNumber,
		ExpiryDate:         m.ExpiryDate,
		Reason:             m.Reason,
		OccurredAt:         m.OccurredAt,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []inventory.StockMovement) []MovementResponse {
	out := make([]MovementResponse, len(movements))
	for i := range movements {
		out[i] = ToMovementResponse(movements[i])
	}
	return out
}

// ToStockHistoryResponse builds a history response from running balance lines
func ToStockHistoryResponse(
	itemID uuid.UUID,
	r shared.DateRange,
	opening, closing decimal.Decimal,
	lines []inventory.MovementLine,
) *StockHistoryResponse {
	resp := &StockHistoryResponse{
		ItemID:  itemID,
		Opening: opening,
		Closing: closing,
		Lines:   make([]HistoryLineResponse, len(lines)),
	}
	if !r.From.IsZero() {
		from := r.From
		resp.From = &from
	}
	if !r.To.IsZero() {
		to := r.To
		resp.To = &to
	}
	for i, l := range lines {
		resp.Lines[i] = HistoryLineResponse{
			MovementResponse: ToMovementResponse(l.Movement),
			Balance:          l.Balance,
		}
	}
	return resp
}
