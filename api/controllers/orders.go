package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/folio-storefront/api/responses"
	"github.com/angelmondragon/folio-storefront/internal/orders"
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/folio-storefront/pkg/errors"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

type amountFormatter interface {
	Format(amount decimal.Decimal, code enums.Currency) string
}

// confirmationResponse is what the confirmation page renders. The shopper's
// email is left out since anyone holding the reference can load it.
type confirmationResponse struct {
	Reference      string             `json:"reference"`
	Status         enums.OrderStatus  `json:"status"`
	Currency       enums.Currency     `json:"currency"`
	ConvertedTotal decimal.Decimal    `json:"converted_total"`
	FormattedTotal string             `json:"formatted_total"`
	Items          []models.OrderItem `json:"items"`
	PaidAt         time.Time          `json:"paid_at"`
}

// OrderConfirmation loads the order behind a confirmation redirect (?ref=).
func OrderConfirmation(svc orders.Service, formatter amountFormatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || formatter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		order, err := svc.FindByReference(r.Context(), r.URL.Query().Get("ref"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmationResponse{
			Reference:      order.Reference,
			Status:         order.Status,
			Currency:       order.Currency,
			ConvertedTotal: order.ConvertedTotal,
			FormattedTotal: formatter.Format(order.ConvertedTotal, order.Currency),
			Items:          order.Items,
			PaidAt:         order.PaidAt,
		})
	}
}

func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
