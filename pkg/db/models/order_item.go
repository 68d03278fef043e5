package models

import "time"

// OrderItem snapshots one cart line at compose time. PriceLamports is the
// discounted per-unit price frozen when the order was created; later
// discount changes never alter it.
type OrderItem struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       int64     `gorm:"column:order_id;not null;index"`
	ProductID     int64     `gorm:"column:product_id;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	PriceLamports int64     `gorm:"column:price_lamports;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the legacy singular table name.
func (OrderItem) TableName() string {
	return "order_item"
}
