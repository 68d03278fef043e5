package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
)

// OrderRepository defines the persistence surface required by the order service.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	ListByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) (*models.Order, error)
}
