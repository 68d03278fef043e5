package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	pkgsolana "github.com/gethsun1/solmarket-backend/pkg/solana"
)

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
}

var _ productLoader = (listings.ProductRepository)(nil)

// Service exposes the cart staging operations.
type Service interface {
	// GetOrCreate returns the wallet's open cart, creating one if none
	// exists. A wallet never has more than one open cart.
	GetOrCreate(ctx context.Context, wallet string) (*models.Cart, error)
	Get(ctx context.Context, id int64) (*models.Cart, error)
	// UpsertItem adds a product line or replaces its quantity.
	UpsertItem(ctx context.Context, input UpsertItemInput) (*models.CartItem, error)
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID int64) error
}

type service struct {
	repo     CartRepository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// UpsertItemInput captures one add-to-cart request.
type UpsertItemInput struct {
	CartID    int64
	ProductID int64
	Quantity  int
}

func (s *service) GetOrCreate(ctx context.Context, wallet string) (*models.Cart, error) {
	if !pkgsolana.IsValidWallet(wallet) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet is not a valid Solana public key")
	}

	existing, err := s.repo.FindOpenByWallet(ctx, wallet)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{
		ClientWallet: wallet,
		Status:       enums.CartStatusOpen,
	})
	if err != nil {
		// Lost a race with a concurrent create; the partial unique index
		// guarantees the winner is the only open cart.
		if pkgerrors.IsUniqueViolation(err) {
			winner, findErr := s.repo.FindOpenByWallet(ctx, wallet)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart after conflict")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	if created.Items == nil {
		created.Items = []models.CartItem{}
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Cart, error) {
	cart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) UpsertItem(ctx context.Context, input UpsertItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	cart, err := s.Get(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is closed")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is not available")
	}

	item, err := s.repo.UpsertItem(ctx, &models.CartItem{
		CartID:    input.CartID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert cart item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	if _, err := s.Get(ctx, cartID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	return rows, nil
}

func (s *service) RemoveItem(ctx context.Context, cartID, productID int64) error {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.Status != enums.CartStatusOpen {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is closed")
	}
	if err := s.repo.DeleteItem(ctx, cartID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}
