package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/internal/orders"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// AddressInfo is the derived escrow account for an order.
type AddressInfo struct {
	OrderID     int64
	Address     string
	Bump        uint8
	ProgramID   string
	ExplorerURL string
}

// Service mirrors the on-chain escrow lifecycle. Every status change is
// client-reported after a submitted transaction; the service enforces the
// transition matrix but never verifies anything against the ledger itself.
type Service interface {
	// DeriveAddress computes the escrow account for an order without
	// touching storage beyond loading the order.
	DeriveAddress(ctx context.Context, orderID int64) (*AddressInfo, error)
	// Init creates the escrow mirror after the client submitted the
	// initialize transaction. Re-reporting the same transaction is a no-op.
	Init(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error)
	RecordFunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error)
	RecordReleased(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error)
	RecordRefunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error)
	// MarkVerified is reserved for the external indexer; nothing in the
	// request path sets it.
	MarkVerified(ctx context.Context, orderID int64) error
	Get(ctx context.Context, orderID int64) (*models.Escrow, error)
	// SweepExpired expires overdue pending/funded escrows in bulk.
	SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type service struct {
	repo      EscrowRepository
	orderRepo orders.OrderRepository
	users     userLoader
	cfg       config.SolanaConfig
	tx        txRunner
	now       func() time.Time
}

// NewService builds an escrow service backed by the provided stack.
func NewService(repo EscrowRepository, orderRepo orders.OrderRepository, users userLoader, cfg config.SolanaConfig, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if cfg.EscrowProgramID == "" {
		return nil, fmt.Errorf("escrow program id required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		users:     users,
		cfg:       cfg,
		tx:        tx,
		now:       time.Now,
	}, nil
}

func (s *service) DeriveAddress(ctx context.Context, orderID int64) (*AddressInfo, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	address, bump, err := pkgsolana.DeriveEscrowAddressBase58(s.cfg.EscrowProgramID, order.ClientWallet, uint64(order.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "derive escrow address")
	}

	return &AddressInfo{
		OrderID:     order.ID,
		Address:     address,
		Bump:        bump,
		ProgramID:   s.cfg.EscrowProgramID,
		ExplorerURL: pkgsolana.ExplorerAccountURL(s.cfg.Cluster, address),
	}, nil
}

func (s *service) Init(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	if txRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err == nil {
		if existing.InitTx != nil && *existing.InitTx == txRef {
			return existing, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "escrow already initialized for this order")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escrow")
	}

	merchant, err := s.users.FindByID(ctx, order.MerchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}

	address, _, err := pkgsolana.DeriveEscrowAddressBase58(s.cfg.EscrowProgramID, order.ClientWallet, uint64(order.ID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "derive escrow address")
	}

	mirror := &models.Escrow{
		OrderID:        order.ID,
		BuyerWallet:    order.ClientWallet,
		MerchantWallet: merchant.WalletAddress,
		Address:        address,
		AmountLamports: order.TotalLamports,
		FeeBPS:         s.cfg.EscrowFeeBPS,
		Status:         enums.EscrowStatusPending,
		InitTx:         &txRef,
		ExpiresAt:      s.now().Add(s.cfg.EscrowTTL),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, mirror); err != nil {
			if pkgerrors.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "escrow already initialized for this order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create escrow")
		}
		order.EscrowAccount = &address
		if _, err := s.orderRepo.WithTx(tx).Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach escrow account to order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mirror, nil
}

func (s *service) RecordFunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return s.transition(ctx, orderID, txRef, enums.EscrowStatusFunded)
}

func (s *service) RecordReleased(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return s.transition(ctx, orderID, txRef, enums.EscrowStatusReleased)
}

func (s *service) RecordRefunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return s.transition(ctx, orderID, txRef, enums.EscrowStatusRefunded)
}

// fromStatus is the transition matrix: target -> legal current statuses.
// Refunds are legal straight from pending (the buyer never funded) and from
// a mirror the sweep already flagged expired, since the on-chain account is
// still refundable.
var fromStatus = map[enums.EscrowStatus][]enums.EscrowStatus{
	enums.EscrowStatusFunded:   {enums.EscrowStatusPending},
	enums.EscrowStatusReleased: {enums.EscrowStatusFunded},
	enums.EscrowStatusRefunded: {enums.EscrowStatusPending, enums.EscrowStatusFunded, enums.EscrowStatusExpired},
}

func transitionAllowed(current, target enums.EscrowStatus) bool {
	for _, legal := range fromStatus[target] {
		if current == legal {
			return true
		}
	}
	return false
}

// orderStatusFor couples the order's settlement status to the escrow outcome.
var orderStatusFor = map[enums.EscrowStatus]enums.OrderStatus{
	enums.EscrowStatusFunded:   enums.OrderStatusPaid,
	enums.EscrowStatusReleased: enums.OrderStatusFulfilled,
	enums.EscrowStatusRefunded: enums.OrderStatusCancelled,
}

func (s *service) transition(ctx context.Context, orderID int64, txRef string, target enums.EscrowStatus) (*models.Escrow, error) {
	if txRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	mirror, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Re-reporting the exact transition that already happened is a no-op;
	// anything else from the wrong state is a conflict.
	if mirror.Status == target {
		if recorded := txFor(mirror, target); recorded != nil && *recorded == txRef {
			return mirror, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("escrow already %s by a different transaction", target))
	}
	if !transitionAllowed(mirror.Status, target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move escrow from %s to %s", mirror.Status, target))
	}
	// An elapsed window blocks fund and release but never a refund: expiry
	// is exactly what entitles the buyer to one.
	if target != enums.EscrowStatusRefunded && mirror.ExpiredAt(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "escrow window has expired")
	}

	mirror.Status = target
	switch target {
	case enums.EscrowStatusFunded:
		mirror.FundTx = &txRef
	case enums.EscrowStatusReleased, enums.EscrowStatusRefunded:
		mirror.SettleTx = &txRef
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Update(ctx, mirror); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update escrow")
		}

		order, err := s.orderRepo.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		order.Status = orderStatusFor[target]
		if target == enums.EscrowStatusFunded {
			order.PaymentTx = &txRef
		}
		if _, err := s.orderRepo.WithTx(tx).Update(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order settlement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mirror, nil
}

func txFor(mirror *models.Escrow, status enums.EscrowStatus) *string {
	switch status {
	case enums.EscrowStatusFunded:
		return mirror.FundTx
	case enums.EscrowStatusReleased, enums.EscrowStatusRefunded:
		return mirror.SettleTx
	default:
		return mirror.InitTx
	}
}

func (s *service) MarkVerified(ctx context.Context, orderID int64) error {
	if _, err := s.Get(ctx, orderID); err != nil {
		return err
	}
	if err := s.repo.SetVerified(ctx, orderID, true); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark escrow verified")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID int64) (*models.Escrow, error) {
	mirror, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "escrow not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escrow")
	}
	return mirror, nil
}

func (s *service) SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	count, err := s.repo.ExpireDue(ctx, now, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire due escrows")
	}
	return count, nil
}

func (s *service) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
