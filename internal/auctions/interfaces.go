package auctions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// AuctionRepository defines the persistence surface required by the auction service.
type AuctionRepository interface {
	WithTx(tx *gorm.DB) AuctionRepository
	Create(ctx context.Context, auction *models.Auction) (*models.Auction, error)
	FindByID(ctx context.Context, id int64) (*models.Auction, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Auction, error)
	List(ctx context.Context, status *enums.AuctionStatus, limit, offset int) ([]models.Auction, error)
	AppendBid(ctx context.Context, bid *models.AuctionBid) (*models.AuctionBid, error)
	UpdateCurrentBid(ctx context.Context, auctionID int64, price decimal.Decimal, bidderID int64) error
	EndDue(ctx context.Context, now time.Time, limit int) (int64, error)
}
