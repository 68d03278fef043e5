package orders

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/discounts"
	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/pkg/db"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
)

const testWallet = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

type orderFixture struct {
	conn     *gorm.DB
	svc      Service
	cartRepo *cart.Repository
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := conn.DB()
		_ = sqlDB.Close()
	})

	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Discount{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	orderRepo := NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	productRepo := listings.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)

	resolver, err := discounts.NewResolver(discountRepo)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	svc, err := NewService(orderRepo, cartRepo, productRepo, resolver, db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	return &orderFixture{conn: conn, svc: svc, cartRepo: cartRepo}
}

func (f *orderFixture) seedMerchant(t *testing.T) *models.User {
	t.Helper()
	user := &models.User{WalletAddress: "merchant-" + t.Name()}
	if err := f.conn.Create(user).Error; err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return user
}

func (f *orderFixture) seedProduct(t *testing.T, merchantID, price int64) *models.Product {
	t.Helper()
	product := &models.Product{
		MerchantID:    merchantID,
		Name:          "Widget",
		Category:      "general",
		PriceLamports: price,
		IsActive:      true,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func (f *orderFixture) seedOpenCart(t *testing.T, wallet string, items ...models.CartItem) *models.Cart {
	t.Helper()
	staged := &models.Cart{ClientWallet: wallet, Status: enums.CartStatusOpen}
	if err := f.conn.Create(staged).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for i := range items {
		items[i].CartID = staged.ID
		if err := f.conn.Create(&items[i]).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return staged
}

func TestComposeSnapshotsDiscountedPricesAndClosesCart(t *testing.T) {
	f := newOrderFixture(t)
	merchant := f.seedMerchant(t)
	product := f.seedProduct(t, merchant.ID, 1000)

	if err := f.conn.Create(&models.Discount{ProductID: product.ID, Percent: 10}).Error; err != nil {
		t.Fatalf("seed discount: %v", err)
	}

	staged := f.seedOpenCart(t, testWallet, models.CartItem{ProductID: product.ID, Quantity: 2})

	order, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if order.TotalLamports != 1800 {
		t.Fatalf("expected total 1800, got %d", order.TotalLamports)
	}
	if order.MerchantID != merchant.ID || order.ClientWallet != testWallet {
		t.Fatalf("unexpected order header: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].PriceLamports != 900 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}

	reloaded, err := f.cartRepo.FindByID(context.Background(), staged.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if reloaded.Status != enums.CartStatusClosed {
		t.Fatalf("expected cart closed, got %s", reloaded.Status)
	}
}

func TestComposeIgnoresInactiveDiscountWindows(t *testing.T) {
	f := newOrderFixture(t)
	merchant := f.seedMerchant(t)
	product := f.seedProduct(t, merchant.ID, 1000)

	past := time.Now().Add(-2 * time.Hour)
	expired := time.Now().Add(-time.Hour)
	if err := f.conn.Create(&models.Discount{
		ProductID: product.ID, Percent: 50, StartsAt: &past, EndsAt: &expired,
	}).Error; err != nil {
		t.Fatalf("seed discount: %v", err)
	}

	staged := f.seedOpenCart(t, testWallet, models.CartItem{ProductID: product.ID, Quantity: 1})

	order, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if order.TotalLamports != 1000 {
		t.Fatalf("expired discount must not apply, got total %d", order.TotalLamports)
	}
}

func TestComposeRejectsEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	staged := f.seedOpenCart(t, testWallet)

	_, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error, got %v", err)
	}
}

func TestComposeRejectsForeignWallet(t *testing.T) {
	f := newOrderFixture(t)
	merchant := f.seedMerchant(t)
	product := f.seedProduct(t, merchant.ID, 1000)
	staged := f.seedOpenCart(t, testWallet, models.CartItem{ProductID: product.ID, Quantity: 1})

	_, err := f.svc.Compose(context.Background(), staged.ID, "BGYQyZsXwJeUgBfduGSmMJ3ouVaeii47wuw88qN8tgsE")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error for foreign wallet, got %v", err)
	}

	_, err = f.svc.Compose(context.Background(), staged.ID, "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing wallet, got %v", err)
	}

	// the mismatch must not close the cart
	reloaded, err := f.cartRepo.FindByID(context.Background(), staged.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if reloaded.Status != enums.CartStatusOpen {
		t.Fatalf("expected cart still open, got %s", reloaded.Status)
	}
}

func TestComposeRejectsMultipleMerchants(t *testing.T) {
	f := newOrderFixture(t)
	merchantA := f.seedMerchant(t)
	merchantB := &models.User{WalletAddress: "merchant-b-" + t.Name()}
	if err := f.conn.Create(merchantB).Error; err != nil {
		t.Fatalf("seed merchant b: %v", err)
	}

	productA := f.seedProduct(t, merchantA.ID, 1000)
	productB := f.seedProduct(t, merchantB.ID, 500)

	staged := f.seedOpenCart(t, testWallet,
		models.CartItem{ProductID: productA.ID, Quantity: 1},
		models.CartItem{ProductID: productB.ID, Quantity: 1},
	)

	_, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error, got %v", err)
	}

	// nothing committed: the cart stays open
	reloaded, err := f.cartRepo.FindByID(context.Background(), staged.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if reloaded.Status != enums.CartStatusOpen {
		t.Fatalf("expected cart still open, got %s", reloaded.Status)
	}
}

func TestComposeRejectsClosedCart(t *testing.T) {
	f := newOrderFixture(t)
	merchant := f.seedMerchant(t)
	product := f.seedProduct(t, merchant.ID, 1000)
	staged := f.seedOpenCart(t, testWallet, models.CartItem{ProductID: product.ID, Quantity: 1})

	if _, err := f.svc.Compose(context.Background(), staged.ID, testWallet); err != nil {
		t.Fatalf("first Compose: %v", err)
	}

	_, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeBusinessRule {
		t.Fatalf("expected business rule error on recompose, got %v", err)
	}
}

func TestUpdateSettlementPatchesFields(t *testing.T) {
	f := newOrderFixture(t)
	merchant := f.seedMerchant(t)
	product := f.seedProduct(t, merchant.ID, 1000)
	staged := f.seedOpenCart(t, testWallet, models.CartItem{ProductID: product.ID, Quantity: 1})

	order, err := f.svc.Compose(context.Background(), staged.ID, testWallet)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	paid := enums.OrderStatusPaid
	tx := "5KtP3qY7signature"
	updated, err := f.svc.UpdateSettlement(context.Background(), order.ID, SettlementInput{
		Status:    &paid,
		PaymentTx: &tx,
	})
	if err != nil {
		t.Fatalf("UpdateSettlement: %v", err)
	}
	if updated.Status != enums.OrderStatusPaid || updated.PaymentTx == nil || *updated.PaymentTx != tx {
		t.Fatalf("unexpected order after patch: %+v", updated)
	}
	if updated.EscrowAccount != nil {
		t.Fatal("escrow account must stay untouched")
	}
}

func TestUpdateSettlementUnknownOrder(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.UpdateSettlement(context.Background(), 12345, SettlementInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
