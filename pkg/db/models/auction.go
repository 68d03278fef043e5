package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Auction is a competitive listing whose current price only ever moves up.
// CurrentPrice and CurrentBidderID are a materialized view over the latest
// accepted bid; the bid log itself is append-only.
type Auction struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement"`
	SellerID        int64               `gorm:"column:seller_id;not null;index"`
	Title           string              `gorm:"column:title;not null"`
	Description     *string             `gorm:"column:description"`
	StartingPrice   decimal.Decimal     `gorm:"column:starting_price;type:numeric(20,9);not null"`
	CurrentPrice    decimal.Decimal     `gorm:"column:current_price;type:numeric(20,9);not null"`
	CurrentBidderID *int64              `gorm:"column:current_bidder_id"`
	Status          enums.AuctionStatus `gorm:"column:status;not null;default:'active'"`
	EndTime         time.Time           `gorm:"column:end_time;not null"`
	Bids            []AuctionBid        `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy plural table name.
func (Auction) TableName() string {
	return "auctions"
}
