package cart

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindByID(ctx context.Context, id int64) (*models.Cart, error)
	FindOpenByWallet(ctx context.Context, wallet string) (*models.Cart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, productID int64) error
	UpdateStatus(ctx context.Context, id int64, status enums.CartStatus) error
	DeleteStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error)
}
