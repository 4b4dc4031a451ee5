package models

import (
	"time"

	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the line snapshot stored with a paid order.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Order is recorded once a checkout attempt settles successfully.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Reference      string            `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	Email          string            `gorm:"column:email;not null" json:"email"`
	Currency       enums.Currency    `gorm:"column:currency;not null" json:"currency"`
	BaseTotal      decimal.Decimal   `gorm:"column:base_total;type:numeric(14,2);not null" json:"base_total"`
	ConvertedTotal decimal.Decimal   `gorm:"column:converted_total;type:numeric(18,4);not null" json:"converted_total"`
	AmountMinor    int64             `gorm:"column:amount_minor;not null" json:"amount_minor"`
	Status         enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	Items          []OrderItem       `gorm:"column:items;type:jsonb;serializer:json;not null" json:"items"`
	PaidAt         time.Time         `gorm:"column:paid_at;not null" json:"paid_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
