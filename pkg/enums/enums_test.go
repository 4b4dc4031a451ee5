package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyIsValidIsExact(t *testing.T) {
	for _, code := range []string{"USD", "NGN", "GHS", "ZAR", "KES"} {
		assert.True(t, Currency(code).IsValid(), code)
	}
	for _, code := range []string{"usd", "EUR", "", " NGN"} {
		assert.False(t, Currency(code).IsValid(), code)
	}
}

func TestParseCurrencyNormalizes(t *testing.T) {
	c, err := ParseCurrency(" ghs ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyGHS, c)

	_, err = ParseCurrency("EUR")
	assert.Error(t, err)
}

func TestCurrenciesReturnsCopy(t *testing.T) {
	list := Currencies()
	list[0] = "XXX"
	assert.Equal(t, CurrencyUSD, Currencies()[0])
	assert.Equal(t, []string{"USD", "NGN", "GHS", "ZAR", "KES"}, CurrencyCodes())
}

func TestCheckoutStatusTerminal(t *testing.T) {
	assert.False(t, CheckoutStatusIdle.IsTerminal())
	assert.False(t, CheckoutStatusProcessing.IsTerminal())
	assert.True(t, CheckoutStatusSuccess.IsTerminal())
	assert.True(t, CheckoutStatusFailed.IsTerminal())
	assert.True(t, CheckoutStatusCancelled.IsTerminal())

	_, err := ParseCheckoutStatus("pending")
	assert.Error(t, err)
}
