package discounts

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
)

// Repository exposes persistence operations for product discounts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a discount repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new discount row.
func (r *Repository) Create(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

// ListActiveForProducts returns discounts active at the given instant for
// the given products. A discount is active when its window contains the
// instant; a nil bound is open-ended.
func (r *Repository) ListActiveForProducts(ctx context.Context, productIDs []int64, at time.Time) ([]models.Discount, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Where("starts_at IS NULL OR starts_at <= ?", at).
		Where("ends_at IS NULL OR ends_at >= ?", at).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForProduct returns every discount attached to a product.
func (r *Repository) ListForProduct(ctx context.Context, productID int64) ([]models.Discount, error) {
	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
