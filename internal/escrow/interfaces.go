package escrow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
)

// EscrowRepository defines the persistence surface required by the escrow service.
type EscrowRepository interface {
	WithTx(tx *gorm.DB) EscrowRepository
	Create(ctx context.Context, escrow *models.Escrow) (*models.Escrow, error)
	FindByOrderID(ctx context.Context, orderID int64) (*models.Escrow, error)
	Update(ctx context.Context, escrow *models.Escrow) (*models.Escrow, error)
	SetVerified(ctx context.Context, orderID int64, verified bool) error
	ExpireDue(ctx context.Context, now time.Time, limit int) (int64, error)
}
