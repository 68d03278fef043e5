package auctions

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Repository exposes persistence operations for auctions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an auction repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) AuctionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new auction.
func (r *Repository) Create(ctx context.Context, auction *models.Auction) (*models.Auction, error) {
	if auction.Status == "" {
		auction.Status = enums.AuctionStatusActive
	}
	if err := r.db.WithContext(ctx).Create(auction).Error; err != nil {
		return nil, err
	}
	return auction, nil
}

// FindByID loads an auction with its bid history.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&auction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// FindByIDForUpdate loads an auction under a row lock so concurrent bids
// serialize. Dialects without FOR UPDATE (the sqlite test harness) fall back
// to a plain read; their single-writer model serializes anyway.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var auction models.Auction
	if err := query.First(&auction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &auction, nil
}

// List returns auctions, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status *enums.AuctionStatus, limit, offset int) ([]models.Auction, error) {
	query := r.db.WithContext(ctx).Model(&models.Auction{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Auction
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendBid inserts one accepted bid.
func (r *Repository) AppendBid(ctx context.Context, bid *models.AuctionBid) (*models.AuctionBid, error) {
	if err := r.db.WithContext(ctx).Create(bid).Error; err != nil {
		return nil, err
	}
	return bid, nil
}

// UpdateCurrentBid materializes the latest accepted bid on the auction row.
func (r *Repository) UpdateCurrentBid(ctx context.Context, auctionID int64, price decimal.Decimal, bidderID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id = ?", auctionID).
		Updates(map[string]any{
			"current_price":     price,
			"current_bidder_id": bidderID,
		}).Error
}

// EndDue flips active auctions past their end time to ended and returns how
// many rows changed.
func (r *Repository) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	due := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Select("id").
		Where("status = ?", enums.AuctionStatusActive).
		Where("end_time < ?", now)
	if limit > 0 {
		due = due.Limit(limit)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Auction{}).
		Where("id IN (?)", due).
		Update("status", enums.AuctionStatusEnded)
	return res.RowsAffected, res.Error
}
