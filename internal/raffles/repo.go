package raffles

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// Repository exposes persistence operations for raffles.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a raffle repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) RaffleRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new raffle.
func (r *Repository) Create(ctx context.Context, raffle *models.Raffle) (*models.Raffle, error) {
	if raffle.Status == "" {
		raffle.Status = enums.RaffleStatusActive
	}
	if err := r.db.WithContext(ctx).Create(raffle).Error; err != nil {
		return nil, err
	}
	return raffle, nil
}

// FindByID loads a raffle with its entries.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&raffle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &raffle, nil
}

// FindByIDForUpdate loads a raffle and its entries under a row lock so
// concurrent ticket purchases and draws serialize. Dialects without FOR
// UPDATE (the sqlite test harness) fall back to a plain read; their
// single-writer model serializes anyway.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Raffle, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var raffle models.Raffle
	err := query.
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&raffle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &raffle, nil
}

// List returns raffles, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status *enums.RaffleStatus, limit, offset int) ([]models.Raffle, error) {
	query := r.db.WithContext(ctx).Model(&models.Raffle{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Raffle
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendEntry inserts one ticket purchase.
func (r *Repository) AppendEntry(ctx context.Context, entry *models.RaffleEntry) (*models.RaffleEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// AddTicketsSold bumps the sold counter.
func (r *Repository) AddTicketsSold(ctx context.Context, raffleID int64, count int) error {
	return r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ?", raffleID).
		Update("tickets_sold", gorm.Expr("tickets_sold + ?", count)).Error
}

// SetWinner records the drawn winner and moves the raffle to drawn.
func (r *Repository) SetWinner(ctx context.Context, raffleID, winnerID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ?", raffleID).
		Updates(map[string]any{
			"winner_id": winnerID,
			"status":    enums.RaffleStatusDrawn,
		}).Error
}

// EndDue flips active raffles past their end time to ended and returns how
// many rows changed.
func (r *Repository) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	due := r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Select("id").
		Where("status = ?", enums.RaffleStatusActive).
		Where("end_time < ?", now)
	if limit > 0 {
		due = due.Limit(limit)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id IN (?)", due).
		Update("status", enums.RaffleStatusEnded)
	return res.RowsAffected, res.Error
}
