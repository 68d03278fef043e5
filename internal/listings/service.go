package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/internal/discounts"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

// Service exposes listing management and browsing.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*ProductDetail, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error)
	AddDiscount(ctx context.Context, input AddDiscountInput) (*models.Discount, error)
}

type service struct {
	repo         ProductRepository
	discountRepo discounts.DiscountRepository
	resolver     discounts.Resolver
	now          func() time.Time
}

// NewService builds a listings service backed by the provided stack.
func NewService(repo ProductRepository, discountRepo discounts.DiscountRepository, resolver discounts.Resolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if discountRepo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("discount resolver required")
	}
	return &service{
		repo:         repo,
		discountRepo: discountRepo,
		resolver:     resolver,
		now:          time.Now,
	}, nil
}

// CreateProductInput captures a new listing.
type CreateProductInput struct {
	MerchantID    int64
	Name          string
	Description   *string
	Category      string
	PriceLamports int64
	ImageURL      *string
}

// AddDiscountInput attaches a percentage discount to a product, optionally
// bounded by a time window.
type AddDiscountInput struct {
	ProductID int64
	Percent   int
	StartsAt  *time.Time
	EndsAt    *time.Time
}

// ProductDetail is a product with its currently effective discount applied.
type ProductDetail struct {
	Product          models.Product
	EffectivePercent int
	EffectivePrice   int64
	Discounts        []models.Discount
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.MerchantID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceLamports < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}

	product := &models.Product{
		MerchantID:    input.MerchantID,
		Name:          input.Name,
		Description:   input.Description,
		PriceLamports: input.PriceLamports,
		ImageURL:      input.ImageURL,
		IsActive:      true,
	}
	if input.Category != "" {
		product.Category = input.Category
	} else {
		product.Category = "general"
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	now := s.now()
	effective, err := s.resolver.ResolveForProducts(ctx, []int64{product.ID}, now)
	if err != nil {
		return nil, err
	}
	percent := effective[product.ID]

	all, err := s.discountRepo.ListForProduct(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discounts")
	}

	return &ProductDetail{
		Product:          *product,
		EffectivePercent: percent,
		EffectivePrice:   discounts.ApplyPercent(product.PriceLamports, percent),
		Discounts:        all,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

func (s *service) AddDiscount(ctx context.Context, input AddDiscountInput) (*models.Discount, error) {
	if input.Percent < 0 || input.Percent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent must be between 0 and 100")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount window ends before it starts")
	}

	if _, err := s.repo.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	discount := &models.Discount{
		ProductID: input.ProductID,
		Percent:   input.Percent,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
	}
	created, err := s.discountRepo.Create(ctx, discount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return created, nil
}
