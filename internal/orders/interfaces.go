package orders

import (
	"context"

	"github.com/angelmondragon/folio-storefront/pkg/db/models"
	"github.com/angelmondragon/folio-storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for paid orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}
