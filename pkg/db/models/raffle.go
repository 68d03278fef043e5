package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Raffle sells a bounded number of ticket slots. TicketsSold never exceeds
// MaxSlots; the increment happens inside the same transaction as the entry
// append, under a row lock.
type Raffle struct {
	ID          int64              `gorm:"column:id;primaryKey;autoIncrement"`
	MerchantID  int64              `gorm:"column:merchant_id;not null;index"`
	Title       string             `gorm:"column:title;not null"`
	Description *string            `gorm:"column:description"`
	TicketPrice decimal.Decimal    `gorm:"column:ticket_price;type:numeric(20,9);not null"`
	TicketsSold int                `gorm:"column:tickets_sold;not null;default:0"`
	MaxSlots    int                `gorm:"column:max_slots;not null"`
	Status      enums.RaffleStatus `gorm:"column:status;not null;default:'active'"`
	WinnerID    *int64             `gorm:"column:winner_id"`
	EndTime     time.Time          `gorm:"column:end_time;not null"`
	Entries     []RaffleEntry      `gorm:"foreignKey:RaffleID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy plural table name.
func (Raffle) TableName() string {
	return "raffles"
}
