package models

import (
	"time"

	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Escrow mirrors the on-chain escrow account for one order. The row is the
// backend's advisory view: every status change is reported by the client
// after it submits a ledger transaction, and nothing here is re-verified
// against the chain. Verified flips only when the external indexer
// corroborates the account.
type Escrow struct {
	OrderID        int64              `gorm:"column:order_id;primaryKey"`
	BuyerWallet    string             `gorm:"column:buyer_wallet;not null"`
	MerchantWallet string             `gorm:"column:merchant_wallet;not null"`
	Address        string             `gorm:"column:address;not null;uniqueIndex"`
	AmountLamports int64              `gorm:"column:amount_lamports;not null"`
	FeeBPS         int                `gorm:"column:fee_bps;not null"`
	Status         enums.EscrowStatus `gorm:"column:status;not null;default:'pending'"`
	InitTx         *string            `gorm:"column:init_tx"`
	FundTx         *string            `gorm:"column:fund_tx"`
	SettleTx       *string            `gorm:"column:settle_tx"`
	Verified       bool               `gorm:"column:verified;not null;default:false"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt      time.Time          `gorm:"column:expires_at;not null"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy singular table name.
func (Escrow) TableName() string {
	return "escrow"
}

// ExpiredAt reports whether the escrow is past its expiry at the given time.
func (e *Escrow) ExpiredAt(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
