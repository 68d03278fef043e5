package raffles

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
)

// RaffleRepository defines the persistence surface required by the raffle service.
type RaffleRepository interface {
	WithTx(tx *gorm.DB) RaffleRepository
	Create(ctx context.Context, raffle *models.Raffle) (*models.Raffle, error)
	FindByID(ctx context.Context, id int64) (*models.Raffle, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Raffle, error)
	List(ctx context.Context, status *enums.RaffleStatus, limit, offset int) ([]models.Raffle, error)
	AppendEntry(ctx context.Context, entry *models.RaffleEntry) (*models.RaffleEntry, error)
	AddTicketsSold(ctx context.Context, raffleID int64, count int) error
	SetWinner(ctx context.Context, raffleID, winnerID int64) error
	EndDue(ctx context.Context, now time.Time, limit int) (int64, error)
}
