package valueobject

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRate is a GST bucket expressed in percent
type TaxRate int

const (
	TaxRateExempt TaxRate = 0
	TaxRate4      TaxRate = 4
	TaxRate5      TaxRate = 5
	TaxRate12     TaxRate = 12
	TaxRate18     TaxRate = 18
	TaxRate28     TaxRate = 28
)

var validTaxRates = map[TaxRate]struct{}{
	TaxRateExempt: {},
	TaxRate4:      {},
	TaxRate5:      {},
	TaxRate12:     {},
	TaxRate18:     {},
	TaxRate28:     {},
}

// NewTaxRate validates a percentage against the GST buckets
func NewTaxRate(percent int) (TaxRate, error) {
	r := TaxRate(percent)
	if !r.IsValid() {
		return 0, fmt.Errorf("tax rate %d%% is not a GST bucket", percent)
	}
	return r, nil
}

// IsValid checks if the rate is a known bucket
func (r TaxRate) IsValid() bool {
	_, ok := validTaxRates[r]
	return ok
}

// Percent returns the rate as a decimal percentage
func (r TaxRate) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(r))
}

// TaxOn returns the tax for a taxable amount, rounded to two places.
// The sign follows the taxable amount.
func (r TaxRate) TaxOn(taxable decimal.Decimal) decimal.Decimal {
	return Round2(taxable.Mul(r.Percent()).Div(decimal.NewFromInt(100)))
}

func (r TaxRate) String() string {
	return fmt.Sprintf("%d%%", int(r))
}

// Value implements driver.Valuer
func (r TaxRate) Value() (driver.Value, error) {
	return int64(r), nil
}

// Scan implements sql.Scanner
func (r *TaxRate) Scan(value any) error {
	switch v := value.(type) {
	case int64:
		*r = TaxRate(v)
	case int32:
		*r = TaxRate(v)
	case int:
		*r = TaxRate(v)
	case float64:
		*r = TaxRate(int(v))
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan tax rate: %w", err)
		}
		*r = TaxRate(d.IntPart())
	case nil:
		*r = TaxRateExempt
	default:
		return fmt.Errorf("scan tax rate: unsupported type %T", value)
	}
	return nil
}
