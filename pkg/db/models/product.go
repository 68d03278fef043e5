package models

import "time"

// Product is a marketplace listing owned by exactly one merchant. Prices are
// stored in lamports so totals never touch floating point.
type Product struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	MerchantID    int64     `gorm:"column:merchant_id;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Description   *string   `gorm:"column:description"`
	Category      string    `gorm:"column:category;not null;default:'general'"`
	PriceLamports int64     `gorm:"column:price_lamports;not null"`
	ImageURL      *string   `gorm:"column:image_url"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the legacy singular table name.
func (Product) TableName() string {
	return "product"
}
