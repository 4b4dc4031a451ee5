package enums

import "fmt"

// OrderStatus tracks a recorded order. Orders are only recorded once paid.
type OrderStatus string

const (
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusNeedsReview is a payment for a replaced checkout attempt; the
	// shopper may have paid twice.
	OrderStatusNeedsReview OrderStatus = "needs_review"
	OrderStatusFulfilled   OrderStatus = "fulfilled"
	OrderStatusRefunded    OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusNeedsReview,
	OrderStatusFulfilled,
	OrderStatusRefunded,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
