package listings

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/gethsun1/solmarket-backend/internal/discounts"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

type stubProductRepo struct {
	byID   map[int64]*models.Product
	nextID int64
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: map[int64]*models.Product{}, nextID: 1}
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) ProductRepository { return s }

func (s *stubProductRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.ID = s.nextID
	s.nextID++
	s.byID[p.ID] = p
	return p, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubProductRepo) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.byID {
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if p, ok := s.byID[id]; ok {
		p.IsActive = active
	}
	return nil
}

type stubListingDiscountRepo struct {
	rows []models.Discount
}

func (s *stubListingDiscountRepo) WithTx(tx *gorm.DB) discounts.DiscountRepository { return s }

func (s *stubListingDiscountRepo) Create(ctx context.Context, d *models.Discount) (*models.Discount, error) {
	d.ID = int64(len(s.rows) + 1)
	s.rows = append(s.rows, *d)
	return d, nil
}

func (s *stubListingDiscountRepo) ListForProduct(ctx context.Context, productID int64) ([]models.Discount, error) {
	var out []models.Discount
	for _, row := range s.rows {
		if row.ProductID == productID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubListingDiscountRepo) ListActiveForProducts(ctx context.Context, productIDs []int64, at time.Time) ([]models.Discount, error) {
	var out []models.Discount
	ids := map[int64]struct{}{}
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}
	for _, row := range s.rows {
		if _, ok := ids[row.ProductID]; !ok {
			continue
		}
		if row.StartsAt != nil && row.StartsAt.After(at) {
			continue
		}
		if row.EndsAt != nil && row.EndsAt.Before(at) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func newListingsService(t *testing.T) (Service, *stubProductRepo, *stubListingDiscountRepo) {
	t.Helper()
	repo := newStubProductRepo()
	discountRepo := &stubListingDiscountRepo{}
	resolver, err := discounts.NewResolver(discountRepo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	svc, err := NewService(repo, discountRepo, resolver)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, discountRepo
}

func TestCreateProductValidates(t *testing.T) {
	svc, _, _ := newListingsService(t)

	cases := []CreateProductInput{
		{MerchantID: 0, Name: "x", PriceLamports: 1},
		{MerchantID: 1, Name: "", PriceLamports: 1},
		{MerchantID: 1, Name: "x", PriceLamports: -1},
	}
	for i, input := range cases {
		_, err := svc.CreateProduct(context.Background(), input)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreateProductDefaultsCategory(t *testing.T) {
	svc, _, _ := newListingsService(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		MerchantID:    1,
		Name:          "Widget",
		PriceLamports: 1000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.Category != "general" || !product.IsActive {
		t.Fatalf("unexpected product: %+v", product)
	}
}

func TestGetProductAppliesEffectiveDiscount(t *testing.T) {
	svc, _, _ := newListingsService(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		MerchantID:    1,
		Name:          "Widget",
		PriceLamports: 1000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if _, err := svc.AddDiscount(context.Background(), AddDiscountInput{
		ProductID: product.ID,
		Percent:   10,
	}); err != nil {
		t.Fatalf("AddDiscount: %v", err)
	}

	detail, err := svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if detail.EffectivePercent != 10 {
		t.Fatalf("expected 10%%, got %d", detail.EffectivePercent)
	}
	if detail.EffectivePrice != 900 {
		t.Fatalf("expected 900 lamports, got %d", detail.EffectivePrice)
	}
}

func TestAddDiscountValidatesWindowAndPercent(t *testing.T) {
	svc, _, _ := newListingsService(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		MerchantID:    1,
		Name:          "Widget",
		PriceLamports: 1000,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	_, err = svc.AddDiscount(context.Background(), AddDiscountInput{ProductID: product.ID, Percent: 120})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for percent, got %v", err)
	}

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.AddDiscount(context.Background(), AddDiscountInput{
		ProductID: product.ID, Percent: 10, StartsAt: &start, EndsAt: &end,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for window, got %v", err)
	}

	_, err = svc.AddDiscount(context.Background(), AddDiscountInput{ProductID: 999, Percent: 10})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
