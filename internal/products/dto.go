package products

import (
	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/shopspring/decimal"
)

// CreateInput is the admin payload for a new product.
type CreateInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image" validate:"required"`
	Features    []string        `json:"features" validate:"max=20,dive,max=200"`
	IsActive    *bool           `json:"is_active"`
	SortOrder   int             `json:"sort_order"`
}

// UpdateInput patches an existing product; nil fields are left as-is.
type UpdateInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Features    *[]string        `json:"features" validate:"omitempty,max=20"`
	IsActive    *bool            `json:"is_active"`
	SortOrder   *int             `json:"sort_order"`
}

// ProductList is one page of a cursor listing.
type ProductList struct {
	Items      []models.Product `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
