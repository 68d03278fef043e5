package discounts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
)

// DiscountRepository defines the persistence surface required by the resolver.
type DiscountRepository interface {
	WithTx(tx *gorm.DB) DiscountRepository
	Create(ctx context.Context, discount *models.Discount) (*models.Discount, error)
	ListActiveForProducts(ctx context.Context, productIDs []int64, at time.Time) ([]models.Discount, error)
	ListForProduct(ctx context.Context, productID int64) ([]models.Discount, error)
}
