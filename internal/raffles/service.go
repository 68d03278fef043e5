package raffles

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Service exposes raffle management, ticketing and drawing.
type Service interface {
	Create(ctx context.Context, input CreateRaffleInput) (*models.Raffle, error)
	Get(ctx context.Context, id int64) (*models.Raffle, error)
	List(ctx context.Context, status *enums.RaffleStatus, limit, offset int) ([]models.Raffle, error)
	// BuyTickets sells tickets against the remaining slots. The capacity
	// check and the counter bump happen under a row lock, so two purchases
	// cannot oversell the raffle together.
	BuyTickets(ctx context.Context, input BuyTicketsInput) (*models.RaffleEntry, error)
	// DrawWinner picks a winner weighted by ticket count once the raffle is
	// over or sold out.
	DrawWinner(ctx context.Context, raffleID int64) (*models.Raffle, error)
	// EndDue flips raffles past their end time; the cron sweep calls this.
	EndDue(ctx context.Context, now time.Time, limit int) (int64, error)
}

type service struct {
	repo  RaffleRepository
	users userLoader
	tx    txRunner
	now   func() time.Time
	rng   *rand.Rand
}

// NewService builds a raffle service backed by the provided stack.
func NewService(repo RaffleRepository, users userLoader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:  repo,
		users: users,
		tx:    tx,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// CreateRaffleInput captures a new raffle.
type CreateRaffleInput struct {
	MerchantID  int64
	Title       string
	Description *string
	TicketPrice decimal.Decimal
	MaxSlots    int
	EndTime     time.Time
}

// BuyTicketsInput captures one ticket purchase attempt.
type BuyTicketsInput struct {
	RaffleID    int64
	BuyerID     int64
	TicketCount int
	TxRef       string
}

func (s *service) Create(ctx context.Context, input CreateRaffleInput) (*models.Raffle, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle title is required")
	}
	if input.MaxSlots <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle must have at least one slot")
	}
	if input.TicketPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket price must be non-negative")
	}
	if !input.EndTime.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle end time must be in the future")
	}
	if _, err := s.users.FindByID(ctx, input.MerchantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	raffle := &models.Raffle{
		MerchantID:  input.MerchantID,
		Title:       input.Title,
		Description: input.Description,
		TicketPrice: input.TicketPrice,
		MaxSlots:    input.MaxSlots,
		Status:      enums.RaffleStatusActive,
		EndTime:     input.EndTime,
	}
	created, err := s.repo.Create(ctx, raffle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create raffle")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Raffle, error) {
	raffle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load raffle")
	}
	return raffle, nil
}

func (s *service) List(ctx context.Context, status *enums.RaffleStatus, limit, offset int) ([]models.Raffle, error) {
	rows, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list raffles")
	}
	return rows, nil
}

func (s *service) BuyTickets(ctx context.Context, input BuyTicketsInput) (*models.RaffleEntry, error) {
	if input.TxRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	if input.TicketCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket count must be positive")
	}
	if _, err := s.users.FindByID(ctx, input.BuyerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}

	var entry *models.RaffleEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Capacity is checked against the locked row so a concurrent
		// purchase cannot claim the same remaining slots.
		raffle, err := repo.FindByIDForUpdate(ctx, input.RaffleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load raffle")
		}
		if raffle.Status != enums.RaffleStatusActive {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "raffle is not active")
		}
		if !s.now().Before(raffle.EndTime) {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "raffle has ended")
		}
		available := raffle.MaxSlots - raffle.TicketsSold
		if input.TicketCount > available {
			return pkgerrors.New(pkgerrors.CodeBusinessRule,
				fmt.Sprintf("only %d slots remaining", available))
		}

		entry = &models.RaffleEntry{
			RaffleID:    raffle.ID,
			BuyerID:     input.BuyerID,
			TicketCount: input.TicketCount,
			AmountPaid:  raffle.TicketPrice.Mul(decimal.NewFromInt(int64(input.TicketCount))),
			TxRef:       input.TxRef,
		}
		if _, err := repo.AppendEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append raffle entry")
		}
		if err := repo.AddTicketsSold(ctx, raffle.ID, input.TicketCount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump tickets sold")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) DrawWinner(ctx context.Context, raffleID int64) (*models.Raffle, error) {
	var drawn *models.Raffle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The drawn-status guard runs against the locked row so two racing
		// draws cannot both pick a winner.
		raffle, err := repo.FindByIDForUpdate(ctx, raffleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load raffle")
		}
		if raffle.Status == enums.RaffleStatusDrawn {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle winner already drawn")
		}
		soldOut := raffle.TicketsSold >= raffle.MaxSlots
		over := !s.now().Before(raffle.EndTime) || raffle.Status == enums.RaffleStatusEnded
		if !soldOut && !over {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "raffle is still running")
		}
		if len(raffle.Entries) == 0 {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "raffle has no entries")
		}

		winnerID := pickWeighted(s.rng, raffle.Entries)
		if err := repo.SetWinner(ctx, raffle.ID, winnerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record winner")
		}

		raffle.WinnerID = &winnerID
		raffle.Status = enums.RaffleStatusDrawn
		drawn = raffle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drawn, nil
}

// pickWeighted draws one ticket uniformly across all sold tickets, so a
// buyer's odds scale with how many they bought.
func pickWeighted(rng *rand.Rand, entries []models.RaffleEntry) int64 {
	total := 0
	for _, entry := range entries {
		total += entry.TicketCount
	}
	pick := rng.Intn(total)
	for _, entry := range entries {
		pick -= entry.TicketCount
		if pick < 0 {
			return entry.BuyerID
		}
	}
	return entries[len(entries)-1].BuyerID
}

func (s *service) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	count, err := s.repo.EndDue(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end due raffles")
	}
	return count, nil
}
