package models

import (
	"time"

	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Cart is the per-wallet staging area for a future order. A partial unique
// index on (client_wallet) WHERE status = 'open' guarantees at most one open
// cart per wallet at the storage layer.
type Cart struct {
	ID           int64            `gorm:"column:id;primaryKey;autoIncrement"`
	ClientWallet string           `gorm:"column:client_wallet;not null;index"`
	Status       enums.CartStatus `gorm:"column:status;not null;default:'open'"`
	Items        []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy singular table name.
func (Cart) TableName() string {
	return "cart"
}
