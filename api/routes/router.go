package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gethsun1/solmarket-backend/api/controllers"
	"github.com/gethsun1/solmarket-backend/api/middleware"
	"github.com/gethsun1/solmarket-backend/internal/auctions"
	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/escrow"
	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/internal/orders"
	"github.com/gethsun1/solmarket-backend/internal/raffles"
	"github.com/gethsun1/solmarket-backend/internal/users"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Users    users.Service
	Listings listings.Service
	Cart     cart.Service
	Orders   orders.Service
	Escrow   escrow.Service
	Auctions auctions.Service
	Raffles  raffles.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.RegisterUser(svcs.Users, logg))
			r.Get("/{userId}", controllers.GetUser(svcs.Users, logg))
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListListings(svcs.Listings, logg))
			r.Post("/", controllers.CreateListing(svcs.Listings, logg))
			r.Get("/{listingId}", controllers.GetListing(svcs.Listings, logg))
			r.Post("/{listingId}/discounts", controllers.AddListingDiscount(svcs.Listings, logg))
		})

		r.Route("/carts", func(r chi.Router) {
			r.Get("/", controllers.GetOrCreateCart(svcs.Cart, logg))
			r.Get("/{cartId}", controllers.GetCart(svcs.Cart, logg))
		})

		r.Route("/cart-items", func(r chi.Router) {
			r.Get("/", controllers.ListCartItems(svcs.Cart, logg))
			r.Post("/", controllers.UpsertCartItem(svcs.Cart, logg))
			r.Delete("/", controllers.RemoveCartItem(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Post("/", controllers.ComposeOrder(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(svcs.Orders, logg))
				r.Patch("/", controllers.UpdateOrderSettlement(svcs.Orders, logg))
				r.Get("/escrow-address", controllers.DeriveEscrowAddress(svcs.Escrow, logg))
				r.Route("/escrow", func(r chi.Router) {
					r.Get("/", controllers.GetEscrow(svcs.Escrow, cfg.Solana, logg))
					if svcs.Escrow != nil {
						r.Post("/init", controllers.ReportEscrowTransition(svcs.Escrow.Init, cfg.Solana, logg))
						r.Post("/fund", controllers.ReportEscrowTransition(svcs.Escrow.RecordFunded, cfg.Solana, logg))
						r.Post("/release", controllers.ReportEscrowTransition(svcs.Escrow.RecordReleased, cfg.Solana, logg))
						r.Post("/refund", controllers.ReportEscrowTransition(svcs.Escrow.RecordRefunded, cfg.Solana, logg))
					}
				})
			})
		})

		r.Route("/auctions", func(r chi.Router) {
			r.Get("/", controllers.ListAuctions(svcs.Auctions, logg))
			r.Post("/", controllers.CreateAuction(svcs.Auctions, logg))
			r.Get("/{auctionId}", controllers.GetAuction(svcs.Auctions, logg))
			r.Post("/{auctionId}/bid", controllers.PlaceBid(svcs.Auctions, cfg.Solana, logg))
		})

		r.Route("/raffles", func(r chi.Router) {
			r.Get("/", controllers.ListRaffles(svcs.Raffles, logg))
			r.Post("/", controllers.CreateRaffle(svcs.Raffles, logg))
			r.Get("/{raffleId}", controllers.GetRaffle(svcs.Raffles, logg))
			r.Post("/{raffleId}/enter", controllers.BuyRaffleTickets(svcs.Raffles, cfg.Solana, logg))
			r.Post("/{raffleId}/draw", controllers.DrawRaffleWinner(svcs.Raffles, logg))
		})
	})

	return r
}
