package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a digital good listed in the storefront. Price is in the base
// currency (NGN), whole units.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description string          `gorm:"column:description;not null" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null" json:"price"`
	Image       string          `gorm:"column:image;not null" json:"image"`
	Features    pq.StringArray  `gorm:"column:features" json:"features"`
	IsActive    bool            `gorm:"column:is_active;not null" json:"is_active"`
	SortOrder   int             `gorm:"column:sort_order;not null" json:"sort_order"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
