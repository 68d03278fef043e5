package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/discounts"
	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service composes carts into orders and tracks their settlement fields.
type Service interface {
	// Compose snapshots the cart into an immutable order for the wallet that
	// owns it. The cart closes in the same transaction, so the wallet's next
	// cart fetch starts fresh.
	Compose(ctx context.Context, cartID int64, clientWallet string) (*models.Order, error)
	Get(ctx context.Context, id int64) (*models.Order, error)
	ListByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.Order, error)
	// UpdateSettlement patches the client-reported settlement fields.
	UpdateSettlement(ctx context.Context, id int64, input SettlementInput) (*models.Order, error)
}

type service struct {
	repo     OrderRepository
	cartRepo cart.CartRepository
	products listings.ProductRepository
	resolver discounts.Resolver
	tx       txRunner
	now      func() time.Time
}

// NewService builds an order service backed by the provided stack.
func NewService(repo OrderRepository, cartRepo cart.CartRepository, products listings.ProductRepository, resolver discounts.Resolver, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		cartRepo: cartRepo,
		products: products,
		resolver: resolver,
		tx:       tx,
		now:      time.Now,
	}, nil
}

// SettlementInput carries the client-reported settlement fields. Nil fields
// are left untouched.
type SettlementInput struct {
	Status        *enums.OrderStatus
	EscrowAccount *string
	PaymentTx     *string
}

func (s *service) Compose(ctx context.Context, cartID int64, clientWallet string) (*models.Order, error) {
	if clientWallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client wallet is required")
	}

	staged, err := s.cartRepo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if staged.ClientWallet != clientWallet {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart does not belong to this wallet")
	}
	if staged.Status != enums.CartStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is already closed")
	}
	if len(staged.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty")
	}

	productIDs := make([]int64, 0, len(staged.Items))
	for _, item := range staged.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	loaded, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	productByID := make(map[int64]models.Product, len(loaded))
	for _, p := range loaded {
		productByID[p.ID] = p
	}

	// The discount snapshot is taken once; every line freezes the price the
	// buyer saw at compose time.
	percentByProduct, err := s.resolver.ResolveForProducts(ctx, productIDs, s.now())
	if err != nil {
		return nil, err
	}

	var merchantID int64
	var total int64
	lines := make([]models.OrderItem, 0, len(staged.Items))
	for _, item := range staged.Items {
		product, ok := productByID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart references a missing product")
		}
		if merchantID == 0 {
			merchantID = product.MerchantID
		} else if merchantID != product.MerchantID {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart contains multiple merchants")
		}

		unitPrice := discounts.ApplyPercent(product.PriceLamports, percentByProduct[product.ID])
		total += unitPrice * int64(item.Quantity)
		lines = append(lines, models.OrderItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			PriceLamports: unitPrice,
		})
	}

	order := &models.Order{
		CartID:        staged.ID,
		MerchantID:    merchantID,
		ClientWallet:  staged.ClientWallet,
		TotalLamports: total,
		Status:        enums.OrderStatusPending,
		Items:         lines,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.cartRepo.WithTx(tx).UpdateStatus(ctx, staged.ID, enums.CartStatusClosed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.Order, error) {
	rows, err := s.repo.ListByWallet(ctx, wallet, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) UpdateSettlement(ctx context.Context, id int64, input SettlementInput) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
		}
		order.Status = *input.Status
	}
	if input.EscrowAccount != nil {
		order.EscrowAccount = input.EscrowAccount
	}
	if input.PaymentTx != nil {
		order.PaymentTx = input.PaymentTx
	}

	updated, err := s.repo.Update(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return updated, nil
}
