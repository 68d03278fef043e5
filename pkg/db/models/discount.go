package models

import "time"

// Discount is a percentage off a product, optionally bounded by a time
// window. Several discounts may overlap; the resolver picks the highest
// active percent.
type Discount struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID int64      `gorm:"column:product_id;not null;index"`
	Percent   int        `gorm:"column:percent;not null"`
	StartsAt  *time.Time `gorm:"column:starts_at"`
	EndsAt    *time.Time `gorm:"column:ends_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy singular table name.
func (Discount) TableName() string {
	return "discount"
}
