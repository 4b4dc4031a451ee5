// Package currency converts base-currency (NGN) amounts into the currencies the
// storefront can charge in and renders them for display.
package currency

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Rates maps a currency to the number of base units one unit of it is worth.
type Rates map[enums.Currency]decimal.Decimal

// DefaultRates is the built-in illustrative table. Deployments override it via
// configuration; it is not a live feed.
func DefaultRates() Rates {
	return Rates{
		enums.CurrencyUSD: decimal.NewFromInt(1),
		enums.CurrencyNGN: decimal.NewFromInt(1),
		enums.CurrencyGHS: decimal.NewFromInt(100),
		enums.CurrencyZAR: decimal.NewFromInt(85),
		enums.CurrencyKES: decimal.NewFromInt(12),
	}
}

// ParseRates reads CODE -> RATE strings (as loaded from the environment) and
// overlays them on the defaults.
func ParseRates(raw map[string]string) (Rates, error) {
	rates := DefaultRates()
	for code, value := range raw {
		c, err := enums.ParseCurrency(code)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", c, err)
		}
		rates[c] = rate
	}
	return rates, nil
}

// Table is an immutable conversion table plus the formatter used for display.
type Table struct {
	rates     Rates
	formatter Formatter
}

type Option func(*Table)

// WithFormatter swaps the display formatter.
func WithFormatter(f Formatter) Option {
	return func(t *Table) {
		if f != nil {
			t.formatter = f
		}
	}
}

// NewTable validates rates: every supported currency needs a positive rate and
// the base currency is pinned to 1.
func NewTable(rates Rates, opts ...Option) (*Table, error) {
	copied := make(Rates, len(rates))
	for code, rate := range rates {
		if !code.IsValid() {
			return nil, fmt.Errorf("unsupported currency %q", code)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive", code)
		}
		copied[code] = rate
	}
	copied[enums.BaseCurrency] = decimal.NewFromInt(1)
	for _, code := range enums.Currencies() {
		if _, ok := copied[code]; !ok {
			return nil, fmt.Errorf("missing rate for %s", code)
		}
	}

	t := &Table{rates: copied, formatter: NewLocaleFormatter()}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MustDefault returns a table over DefaultRates.
func MustDefault() *Table {
	t, err := NewTable(DefaultRates())
	if err != nil {
		panic(err)
	}
	return t
}

// Convert turns a base-currency amount into target. The base currency is
// returned unchanged; everything else is amount / rate.
func (t *Table) Convert(amount decimal.Decimal, target enums.Currency) (decimal.Decimal, error) {
	if target == enums.BaseCurrency {
		return amount, nil
	}
	rate, ok := t.rates[target]
	if !ok {
		return decimal.Zero, fmt.Errorf("unsupported currency %q", target)
	}
	return amount.Div(rate), nil
}

func (t *Table) Rate(code enums.Currency) (decimal.Decimal, bool) {
	rate, ok := t.rates[code]
	return rate, ok
}

func (t *Table) Format(amount decimal.Decimal, code enums.Currency) string {
	return t.formatter.Format(amount, code)
}

// Entry describes one supported currency for listings.
type Entry struct {
	Code     enums.Currency  `json:"code"`
	Symbol   string          `json:"symbol"`
	Rate     decimal.Decimal `json:"rate"`
	Decimals int32           `json:"decimals"`
}

// Entries lists the table in the canonical currency order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.rates))
	order := map[enums.Currency]int{}
	for i, code := range enums.Currencies() {
		order[code] = i
	}
	for code, rate := range t.rates {
		meta := metaFor(code)
		out = append(out, Entry{Code: code, Symbol: meta.symbol, Rate: rate, Decimals: meta.decimals})
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Code] < order[out[j].Code] })
	return out
}

// IsValidCode reports exact membership in the supported set.
func IsValidCode(value string) bool {
	return enums.Currency(value).IsValid()
}
