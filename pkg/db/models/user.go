package models

import "time"

// User is a wallet-backed account. Registration is implicit: the first time
// a wallet shows up it gets a row, and profile fields stay optional.
type User struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	WalletAddress string    `gorm:"column:wallet_address;not null;uniqueIndex"`
	Username      *string   `gorm:"column:username;uniqueIndex"`
	Email         *string   `gorm:"column:email"`
	Bio           *string   `gorm:"column:bio"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy plural table name.
func (User) TableName() string {
	return "users"
}
