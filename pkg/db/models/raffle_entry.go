package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RaffleEntry is one ticket purchase. Rows are never updated or deleted.
type RaffleEntry struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	RaffleID    int64           `gorm:"column:raffle_id;not null;index"`
	BuyerID     int64           `gorm:"column:buyer_id;not null"`
	TicketCount int             `gorm:"column:ticket_count;not null"`
	AmountPaid  decimal.Decimal `gorm:"column:amount_paid;type:numeric(20,9);not null"`
	TxRef       string          `gorm:"column:tx_ref;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy plural table name.
func (RaffleEntry) TableName() string {
	return "raffle_entries"
}
