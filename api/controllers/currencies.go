package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/api/responses"
	"github.com/angelmondragon/folio-storefront/api/validators"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type currencyTable interface {
	Entries() []currency.Entry
	Convert(amount decimal.Decimal, target enums.Currency) (decimal.Decimal, error)
	Format(amount decimal.Decimal, code enums.Currency) string
}

type conversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Base      enums.Currency  `json:"base"`
	Currency  enums.Currency  `json:"currency"`
	Converted decimal.Decimal `json:"converted"`
	Formatted string          `json:"formatted"`
}

func CurrencyList(table currencyTable, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if table == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "currency table unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"base":       enums.BaseCurrency,
			"currencies": table.Entries(),
		})
	}
}

// CurrencyConvert converts a base-currency amount for display.
func CurrencyConvert(table currencyTable, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if table == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "currency table unavailable"))
			return
		}
		amount, err := validators.ParseQueryDecimal(r, "amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code := strings.TrimSpace(r.URL.Query().Get("currency"))
		if !currency.IsValidCode(code) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported currency %q", code).
				WithDetails(map[string]any{"field": "currency"}))
			return
		}
		target := enums.Currency(code)
		converted, err := table.Convert(amount, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, conversionResponse{
			Amount:    amount,
			Base:      enums.BaseCurrency,
			Currency:  target,
			Converted: converted,
			Formatted: table.Format(converted, target),
		})
	}
}
