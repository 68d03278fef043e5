package auctions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Service exposes auction management and bidding.
type Service interface {
	Create(ctx context.Context, input CreateAuctionInput) (*models.Auction, error)
	Get(ctx context.Context, id int64) (*models.Auction, error)
	List(ctx context.Context, status *enums.AuctionStatus, limit, offset int) ([]models.Auction, error)
	// PlaceBid accepts a bid strictly above the current price. The check and
	// the write happen under a row lock, so two bids at the same amount
	// cannot both win.
	PlaceBid(ctx context.Context, input PlaceBidInput) (*models.AuctionBid, error)
	// EndDue flips auctions past their end time; the cron sweep calls this.
	EndDue(ctx context.Context, now time.Time, limit int) (int64, error)
}

type service struct {
	repo  AuctionRepository
	users userLoader
	tx    txRunner
	now   func() time.Time
}

// NewService builds an auction service backed by the provided stack.
func NewService(repo AuctionRepository, users userLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auction repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, users: users, tx: tx, now: time.Now}, nil
}

// CreateAuctionInput captures a new competitive listing.
type CreateAuctionInput struct {
	SellerID      int64
	Title         string
	Description   *string
	StartingPrice decimal.Decimal
	EndTime       time.Time
}

// PlaceBidInput captures one bid attempt.
type PlaceBidInput struct {
	AuctionID int64
	BidderID  int64
	Amount    decimal.Decimal
	TxRef     string
}

func (s *service) Create(ctx context.Context, input CreateAuctionInput) (*models.Auction, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction title is required")
	}
	if input.StartingPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "starting price must be non-negative")
	}
	if !input.EndTime.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auction end time must be in the future")
	}
	if _, err := s.users.FindByID(ctx, input.SellerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load seller")
	}

	auction := &models.Auction{
		SellerID:      input.SellerID,
		Title:         input.Title,
		Description:   input.Description,
		StartingPrice: input.StartingPrice,
		CurrentPrice:  input.StartingPrice,
		Status:        enums.AuctionStatusActive,
		EndTime:       input.EndTime,
	}
	created, err := s.repo.Create(ctx, auction)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create auction")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Auction, error) {
	auction, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
	}
	return auction, nil
}

func (s *service) List(ctx context.Context, status *enums.AuctionStatus, limit, offset int) ([]models.Auction, error) {
	rows, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list auctions")
	}
	return rows, nil
}

func (s *service) PlaceBid(ctx context.Context, input PlaceBidInput) (*models.AuctionBid, error) {
	if input.TxRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}
	if _, err := s.users.FindByID(ctx, input.BidderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bidder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bidder")
	}

	var bid *models.AuctionBid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Validation runs against the locked row; a bid that raced another
		// one re-checks against the winner's price, not a stale read.
		auction, err := repo.FindByIDForUpdate(ctx, input.AuctionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "auction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auction")
		}
		if auction.Status != enums.AuctionStatusActive {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "auction is not active")
		}
		if !s.now().Before(auction.EndTime) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "auction has ended")
		}
		if input.Amount.LessThanOrEqual(auction.CurrentPrice) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule,
				fmt.Sprintf("bid must exceed current price %s", auction.CurrentPrice.String()))
		}

		bid = &models.AuctionBid{
			AuctionID: auction.ID,
			BidderID:  input.BidderID,
			Amount:    input.Amount,
			TxRef:     input.TxRef,
		}
		if _, err := repo.AppendBid(ctx, bid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append bid")
		}
		if err := repo.UpdateCurrentBid(ctx, auction.ID, input.Amount, input.BidderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update current bid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *service) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	count, err := s.repo.EndDue(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end due auctions")
	}
	return count, nil
}
