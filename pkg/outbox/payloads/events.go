package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPaidItem mirrors one purchased cart line.
type OrderPaidItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// OrderPaidEvent is emitted once a payment reference settles successfully.
type OrderPaidEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	Reference      string          `json:"reference"`
	Email          string          `json:"email"`
	Currency       string          `json:"currency"`
	BaseTotal      decimal.Decimal `json:"base_total"`
	ConvertedTotal decimal.Decimal `json:"converted_total"`
	AmountMinor    int64           `json:"amount_minor"`
	Status         string          `json:"status,omitempty"`
	Items          []OrderPaidItem `json:"items"`
	PaidAt         time.Time       `json:"paid_at"`
}

// ContactMessageReceivedEvent tells the owner a visitor wrote in.
type ContactMessageReceivedEvent struct {
	MessageID uuid.UUID `json:"message_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
}
