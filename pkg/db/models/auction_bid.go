package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionBid is one accepted bid. Rows are never updated or deleted.
type AuctionBid struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	AuctionID int64           `gorm:"column:auction_id;not null;index"`
	BidderID  int64           `gorm:"column:bidder_id;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(20,9);not null"`
	TxRef     string          `gorm:"column:tx_ref;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy plural table name.
func (AuctionBid) TableName() string {
	return "auction_bids"
}
