package currency

import (
	"fmt"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders an amount for display in a currency.
type Formatter interface {
	Format(amount decimal.Decimal, code enums.Currency) string
}

type currencyMeta struct {
	symbol   string
	decimals int32
}

var metaByCurrency = map[enums.Currency]currencyMeta{
	enums.CurrencyUSD: {symbol: "$", decimals: 2},
	enums.CurrencyNGN: {symbol: "₦", decimals: 0},
	enums.CurrencyGHS: {symbol: "GH₵", decimals: 2},
	enums.CurrencyZAR: {symbol: "R", decimals: 2},
	enums.CurrencyKES: {symbol: "KSh", decimals: 2},
}

func metaFor(code enums.Currency) currencyMeta {
	if meta, ok := metaByCurrency[code]; ok {
		return meta
	}
	return currencyMeta{symbol: string(code) + " ", decimals: 2}
}

// Decimals is the number of fraction digits shown for code.
func Decimals(code enums.Currency) int32 {
	return metaFor(code).decimals
}

// LocaleFormatter prefixes the currency symbol and groups digits using the
// printer's locale.
type LocaleFormatter struct {
	printer *message.Printer
}

func NewLocaleFormatter() *LocaleFormatter {
	return &LocaleFormatter{printer: message.NewPrinter(language.English)}
}

func (f *LocaleFormatter) Format(amount decimal.Decimal, code enums.Currency) string {
	meta := metaFor(code)
	rounded := amount.Round(meta.decimals)
	value, _ := rounded.Float64()

	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	pattern := fmt.Sprintf("%%.%df", meta.decimals)
	return sign + meta.symbol + f.printer.Sprintf(pattern, value)
}
