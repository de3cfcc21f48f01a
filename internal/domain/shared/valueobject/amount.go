package valueobject

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places kept for monetary values
const AmountScale int32 = 2

// Round2 rounds half away from zero to two decimal places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// ProrateShare returns the part of total attributable to part units out of
// whole, given that taken units worth takenAmount were already attributed.
// The slice that reaches whole receives the exact remainder, so the shares of
// any sequence of slices covering whole sum to total and never exceed it.
func ProrateShare(total, whole, taken, takenAmount, part decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	remaining := total.Sub(takenAmount)
	if taken.Add(part).GreaterThanOrEqual(whole) {
		return remaining
	}
	share := Round2(total.Mul(part).Div(whole))
	if share.Abs().GreaterThan(remaining.Abs()) {
		return remaining
	}
	return share
}
