package escrow

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Repository exposes persistence operations for escrow mirrors.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an escrow repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) EscrowRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the escrow mirror for an order.
func (r *Repository) Create(ctx context.Context, escrow *models.Escrow) (*models.Escrow, error) {
	if escrow.Status == "" {
		escrow.Status = enums.EscrowStatusPending
	}
	if err := r.db.WithContext(ctx).Create(escrow).Error; err != nil {
		return nil, err
	}
	return escrow, nil
}

// FindByOrderID loads the escrow mirror for an order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID int64) (*models.Escrow, error) {
	var escrow models.Escrow
	if err := r.db.WithContext(ctx).First(&escrow, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &escrow, nil
}

// Update saves the escrow row.
func (r *Repository) Update(ctx context.Context, escrow *models.Escrow) (*models.Escrow, error) {
	if err := r.db.WithContext(ctx).Save(escrow).Error; err != nil {
		return nil, err
	}
	return escrow, nil
}

// SetVerified flips the indexer corroboration flag.
func (r *Repository) SetVerified(ctx context.Context, orderID int64, verified bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Where("order_id = ?", orderID).
		Update("verified", verified).Error
}

// ExpireDue moves pending and funded escrows past their expiry to expired
// and returns how many rows changed. The limit bounds a single sweep.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	due := r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Select("order_id").
		Where("status IN ?", []enums.EscrowStatus{enums.EscrowStatusPending, enums.EscrowStatusFunded}).
		Where("expires_at < ?", now)
	if limit > 0 {
		due = due.Limit(limit)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Where("order_id IN (?)", due).
		Update("status", enums.EscrowStatusExpired)
	return res.RowsAffected, res.Error
}
