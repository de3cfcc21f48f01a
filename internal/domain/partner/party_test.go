package partner

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParty_ExceedsCreditLimit(t *testing.T) {
	limit := decimal.NewFromInt(1000)
	p := &Party{Type: PartyTypeCustomer, CreditLimit: &limit}

	assert.False(t, p.ExceedsCreditLimit(decimal.NewFromInt(600), decimal.NewFromInt(400)))
	assert.True(t, p.ExceedsCreditLimit(decimal.NewFromInt(600), decimal.NewFromInt(401)))

	t.Run("nil limit is unlimited", func(t *testing.T) {
		p := &Party{}
		assert.False(t, p.ExceedsCreditLimit(decimal.NewFromInt(1_000_000_000), decimal.NewFromInt(1)))
	})

	t.Run("zero limit is unlimited", func(t *testing.T) {
		zero := decimal.Zero
		p := &Party{CreditLimit: &zero}
		assert.False(t, p.HasCreditLimit())
		assert.False(t, p.ExceedsCreditLimit(decimal.NewFromInt(5), decimal.NewFromInt(5)))
	})
}

func TestPartyType_IsValid(t *testing.T) {
	assert.True(t, PartyTypeCustomer.IsValid())
	assert.True(t, PartyTypeSupplier.IsValid())
	assert.False(t, PartyType("employee").IsValid())
}
