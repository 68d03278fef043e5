package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gethsun1/solmarket-backend/internal/auctions"
	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/escrow"
	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/internal/orders"
	"github.com/gethsun1/solmarket-backend/internal/raffles"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	"github.com/gethsun1/solmarket-backend/pkg/enums"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubUserService struct{}

func (stubUserService) GetOrRegister(ctx context.Context, wallet string) (*models.User, error) {
	return &models.User{ID: 1, WalletAddress: wallet}, nil
}

func (stubUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id}, nil
}

type stubListingService struct{}

func (stubListingService) CreateProduct(ctx context.Context, input listings.CreateProductInput) (*models.Product, error) {
	return &models.Product{ID: 1, Name: input.Name}, nil
}

func (stubListingService) GetProduct(ctx context.Context, id int64) (*listings.ProductDetail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (stubListingService) ListProducts(ctx context.Context, filter listings.ListFilter) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (stubListingService) AddDiscount(ctx context.Context, input listings.AddDiscountInput) (*models.Discount, error) {
	return &models.Discount{ID: 1, ProductID: input.ProductID, Percent: input.Percent}, nil
}

type stubCartService struct{}

func (stubCartService) GetOrCreate(ctx context.Context, wallet string) (*models.Cart, error) {
	return &models.Cart{ID: 7, ClientWallet: wallet, Status: enums.CartStatusOpen}, nil
}

func (stubCartService) Get(ctx context.Context, id int64) (*models.Cart, error) {
	return &models.Cart{ID: id, Status: enums.CartStatusOpen}, nil
}

func (stubCartService) UpsertItem(ctx context.Context, input cart.UpsertItemInput) (*models.CartItem, error) {
	return &models.CartItem{CartID: input.CartID, ProductID: input.ProductID, Quantity: input.Quantity}, nil
}

func (stubCartService) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	return []models.CartItem{}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, cartID, productID int64) error {
	return nil
}

type stubOrderService struct{}

func (stubOrderService) Compose(ctx context.Context, cartID int64, clientWallet string) (*models.Order, error) {
	return &models.Order{ID: 42, CartID: cartID, ClientWallet: clientWallet, Status: enums.OrderStatusPending}, nil
}

func (stubOrderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	return &models.Order{ID: id, Status: enums.OrderStatusPending}, nil
}

func (stubOrderService) ListByWallet(ctx context.Context, wallet string, limit, offset int) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrderService) UpdateSettlement(ctx context.Context, id int64, input orders.SettlementInput) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

type stubEscrowService struct{}

func (stubEscrowService) DeriveAddress(ctx context.Context, orderID int64) (*escrow.AddressInfo, error) {
	return &escrow.AddressInfo{OrderID: orderID, Address: "11111111111111111111111111111111"}, nil
}

func (stubEscrowService) Init(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return &models.Escrow{OrderID: orderID, Status: enums.EscrowStatusPending, InitTx: &txRef}, nil
}

func (stubEscrowService) RecordFunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return &models.Escrow{OrderID: orderID, Status: enums.EscrowStatusFunded}, nil
}

func (stubEscrowService) RecordReleased(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return &models.Escrow{OrderID: orderID, Status: enums.EscrowStatusReleased}, nil
}

func (stubEscrowService) RecordRefunded(ctx context.Context, orderID int64, txRef string) (*models.Escrow, error) {
	return &models.Escrow{OrderID: orderID, Status: enums.EscrowStatusRefunded}, nil
}

func (stubEscrowService) MarkVerified(ctx context.Context, orderID int64) error { return nil }

func (stubEscrowService) Get(ctx context.Context, orderID int64) (*models.Escrow, error) {
	return &models.Escrow{OrderID: orderID, Status: enums.EscrowStatusPending}, nil
}

func (stubEscrowService) SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	return 0, nil
}

type stubAuctionService struct{}

func (stubAuctionService) Create(ctx context.Context, input auctions.CreateAuctionInput) (*models.Auction, error) {
	return &models.Auction{ID: 1, Title: input.Title}, nil
}

func (stubAuctionService) Get(ctx context.Context, id int64) (*models.Auction, error) {
	return &models.Auction{ID: id}, nil
}

func (stubAuctionService) List(ctx context.Context, status *enums.AuctionStatus, limit, offset int) ([]models.Auction, error) {
	return []models.Auction{}, nil
}

func (stubAuctionService) PlaceBid(ctx context.Context, input auctions.PlaceBidInput) (*models.AuctionBid, error) {
	return &models.AuctionBid{AuctionID: input.AuctionID, Amount: decimal.NewFromInt(1), TxRef: input.TxRef}, nil
}

func (stubAuctionService) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	return 0, nil
}

type stubRaffleService struct{}

func (stubRaffleService) Create(ctx context.Context, input raffles.CreateRaffleInput) (*models.Raffle, error) {
	return &models.Raffle{ID: 1, Title: input.Title}, nil
}

func (stubRaffleService) Get(ctx context.Context, id int64) (*models.Raffle, error) {
	return &models.Raffle{ID: id}, nil
}

func (stubRaffleService) List(ctx context.Context, status *enums.RaffleStatus, limit, offset int) ([]models.Raffle, error) {
	return []models.Raffle{}, nil
}

func (stubRaffleService) BuyTickets(ctx context.Context, input raffles.BuyTicketsInput) (*models.RaffleEntry, error) {
	return &models.RaffleEntry{RaffleID: input.RaffleID, TicketCount: input.TicketCount, TxRef: input.TxRef}, nil
}

func (stubRaffleService) DrawWinner(ctx context.Context, raffleID int64) (*models.Raffle, error) {
	return &models.Raffle{ID: raffleID, Status: enums.RaffleStatusDrawn}, nil
}

func (stubRaffleService) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	return 0, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Solana.Cluster = "devnet"
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})

	return NewRouter(cfg, logg, stubPinger{}, nil, Services{
		Users:    stubUserService{},
		Listings: stubListingService{},
		Cart:     stubCartService{},
		Orders:   stubOrderService{},
		Escrow:   stubEscrowService{},
		Auctions: stubAuctionService{},
		Raffles:  stubRaffleService{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env := w.Header().Get("X-SolMarket-Env"); env != "test" {
		t.Fatalf("unexpected env header %q", env)
	}
}

func TestRouterRoutesAreWired(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/api/v1/listings", "", http.StatusOK},
		{http.MethodGet, "/api/v1/listings/9", "", http.StatusNotFound},
		{http.MethodGet, "/api/v1/carts?wallet=4Nd1mYvM6K1mZ7qW3ueTdNjPZTfqjqTteZUiAG6M8P7q", "", http.StatusOK},
		{http.MethodPost, "/api/v1/orders", `{"cart_id":7,"client_wallet":"4Nd1mYvM6K1mZ7qW3ueTdNjPZTfqjqTteZUiAG6M8P7q"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/orders", `{"cart_id":7}`, http.StatusBadRequest},
		{http.MethodGet, "/api/v1/orders/42/escrow-address", "", http.StatusOK},
		{http.MethodPost, "/api/v1/orders/42/escrow/init", `{"tx_ref":"sig"}`, http.StatusOK},
		{http.MethodPost, "/api/v1/cart-items", `{"cart_id":7,"product_id":2,"quantity":3}`, http.StatusOK},
		{http.MethodGet, "/api/v1/cart-items?cartId=7", "", http.StatusOK},
		{http.MethodPost, "/api/v1/auctions/3/bid", `{"bidder_id":1,"amount":"2.5","tx_ref":"sig"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/raffles/3/enter", `{"buyer_id":1,"ticket_count":2,"tx_ref":"sig"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/raffles/3/draw", "", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		var body io.Reader
		if tc.body != "" {
			body = strings.NewReader(tc.body)
		}
		req := httptest.NewRequest(tc.method, tc.path, body)
		if tc.body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.status, w.Code, w.Body.String())
		}
	}
}

func TestRouterEscrowTransitionResponseIncludesExplorerURL(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/42/escrow/init", strings.NewReader(`{"tx_ref":"abc123"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			InitExplorerURL string `json:"init_explorer_url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(envelope.Data.InitExplorerURL, "abc123") {
		t.Fatalf("expected explorer url with tx ref, got %q", envelope.Data.InitExplorerURL)
	}
}
