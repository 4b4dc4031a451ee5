package enums

import (
	"fmt"
	"strings"
)

// Currency is an ISO-4217 code the storefront can charge in.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyNGN Currency = "NGN"
	CurrencyGHS Currency = "GHS"
	CurrencyZAR Currency = "ZAR"
	CurrencyKES Currency = "KES"

	// BaseCurrency is the denomination catalog prices and cart totals are kept in.
	BaseCurrency = CurrencyNGN
)

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyNGN,
	CurrencyGHS,
	CurrencyZAR,
	CurrencyKES,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized. Matching is exact.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// Currencies returns the supported codes in display order.
func Currencies() []Currency {
	out := make([]Currency, len(validCurrencies))
	copy(out, validCurrencies)
	return out
}

func CurrencyCodes() []string {
	out := make([]string, 0, len(validCurrencies))
	for _, c := range validCurrencies {
		out = append(out, string(c))
	}
	return out
}

// ParseCurrency converts user input into a Currency, ignoring case and surrounding space.
func ParseCurrency(value string) (Currency, error) {
	normalized := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
