package orders

import (
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// PaidOrder is what checkout knows once a payment reference settled successfully.
type PaidOrder struct {
	Reference      string
	Email          string
	Currency       enums.Currency
	BaseTotal      decimal.Decimal
	ConvertedTotal decimal.Decimal
	AmountMinor    int64
	Items          []models.OrderItem
	PaidAt         time.Time
	// NeedsReview flags a payment that arrived for a checkout attempt the
	// shopper had already replaced.
	NeedsReview bool
}

// OrderList is a page of orders for the dashboard.
type OrderList struct {
	Items      []models.Order `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
