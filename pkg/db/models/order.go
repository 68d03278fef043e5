package models

import (
	"time"

	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Order is the immutable result of composing a cart. Only the settlement
// fields (status, escrow account, payment tx) change after creation.
type Order struct {
	ID            int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CartID        int64             `gorm:"column:cart_id;not null;index"`
	MerchantID    int64             `gorm:"column:merchant_id;not null;index"`
	ClientWallet  string            `gorm:"column:client_wallet;not null;index"`
	TotalLamports int64             `gorm:"column:total_lamports;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	EscrowAccount *string           `gorm:"column:escrow_account"`
	PaymentTx     *string           `gorm:"column:payment_tx"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy plural table name used by orders.
func (Order) TableName() string {
	return "orders"
}
