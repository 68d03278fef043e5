package listings

import (
	"context"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
)

// ListFilter narrows a product listing query.
type ListFilter struct {
	Category   string
	MerchantID int64
	ActiveOnly bool
	Limit      int
	Offset     int
}

// ProductRepository defines the persistence surface required by the listings service.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	SetActive(ctx context.Context, id int64, active bool) error
}
