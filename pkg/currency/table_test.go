package currency

import (
	"testing"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertBaseIsIdentity(t *testing.T) {
	table := MustDefault()
	amount := decimal.RequireFromString("12345.67")

	got, err := table.Convert(amount, enums.CurrencyNGN)
	require.NoError(t, err)
	assert.True(t, got.Equal(amount))
}

func TestConvertDividesByRate(t *testing.T) {
	table := MustDefault()

	got, err := table.Convert(decimal.NewFromInt(5000), enums.CurrencyUSD)
	require.NoError(t, err)
	assert.Equal(t, "5000", got.String())

	got, err = table.Convert(decimal.NewFromInt(5000), enums.CurrencyGHS)
	require.NoError(t, err)
	assert.Equal(t, "50", got.String())
}

func TestConvertRoundTrip(t *testing.T) {
	table := MustDefault()
	amount := decimal.NewFromInt(7777)

	for _, code := range enums.Currencies() {
		converted, err := table.Convert(amount, code)
		require.NoError(t, err)
		rate, ok := table.Rate(code)
		require.True(t, ok)
		back := converted.Mul(rate)
		assert.True(t, back.Sub(amount).Abs().LessThan(decimal.RequireFromString("0.0001")), "%s round trip gave %s", code, back)
	}
}

func TestConvertUnknownCurrency(t *testing.T) {
	table := MustDefault()
	_, err := table.Convert(decimal.NewFromInt(1), enums.Currency("EUR"))
	assert.Error(t, err)
}

func TestNewTableValidates(t *testing.T) {
	rates := DefaultRates()
	rates[enums.CurrencyKES] = decimal.Zero
	_, err := NewTable(rates)
	assert.Error(t, err)

	rates = DefaultRates()
	delete(rates, enums.CurrencyZAR)
	_, err = NewTable(rates)
	assert.Error(t, err)

	rates = DefaultRates()
	rates[enums.CurrencyNGN] = decimal.NewFromInt(3)
	table, err := NewTable(rates)
	require.NoError(t, err)
	rate, _ := table.Rate(enums.CurrencyNGN)
	assert.Equal(t, "1", rate.String())
}

func TestParseRatesOverlaysDefaults(t *testing.T) {
	rates, err := ParseRates(map[string]string{"usd": "1500", "KES": "11.5"})
	require.NoError(t, err)
	assert.Equal(t, "1500", rates[enums.CurrencyUSD].String())
	assert.Equal(t, "11.5", rates[enums.CurrencyKES].String())
	assert.Equal(t, "100", rates[enums.CurrencyGHS].String())

	_, err = ParseRates(map[string]string{"EUR": "1"})
	assert.Error(t, err)
	_, err = ParseRates(map[string]string{"USD": "abc"})
	assert.Error(t, err)
}

func TestIsValidCode(t *testing.T) {
	assert.True(t, IsValidCode("ZAR"))
	assert.False(t, IsValidCode("zar"))
	assert.False(t, IsValidCode("BTC"))
}

func TestEntriesInCanonicalOrder(t *testing.T) {
	entries := MustDefault().Entries()
	require.Len(t, entries, 5)
	assert.Equal(t, enums.CurrencyUSD, entries[0].Code)
	assert.Equal(t, enums.CurrencyKES, entries[4].Code)
	assert.Equal(t, int32(0), entries[1].Decimals)
}

type upperFormatter struct{}

func (upperFormatter) Format(amount decimal.Decimal, code enums.Currency) string {
	return string(code) + " " + amount.String()
}

func TestWithFormatterIsPluggable(t *testing.T) {
	table, err := NewTable(DefaultRates(), WithFormatter(upperFormatter{}))
	require.NoError(t, err)
	assert.Equal(t, "USD 10", table.Format(decimal.NewFromInt(10), enums.CurrencyUSD))
}
