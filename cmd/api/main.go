package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/gethsun1/solmarket-backend/api/routes"
	"github.com/gethsun1/solmarket-backend/internal/auctions"
	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/discounts"
	"github.com/gethsun1/solmarket-backend/internal/escrow"
	"github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/internal/orders"
	"github.com/gethsun1/solmarket-backend/internal/raffles"
	"github.com/gethsun1/solmarket-backend/internal/users"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/migrate"
	"github.com/gethsun1/solmarket-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	svcs, err := buildServices(dbClient, cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"cluster": cfg.Solana.Cluster,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildServices(dbClient *db.Client, cfg *config.Config) (routes.Services, error) {
	conn := dbClient.DB()

	userRepo := users.NewRepository(conn)
	productRepo := listings.NewRepository(conn)
	discountRepo := discounts.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	escrowRepo := escrow.NewRepository(conn)
	auctionRepo := auctions.NewRepository(conn)
	raffleRepo := raffles.NewRepository(conn)

	resolver, err := discounts.NewResolver(discountRepo)
	if err != nil {
		return routes.Services{}, err
	}

	userSvc, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	listingSvc, err := listings.NewService(productRepo, discountRepo, resolver)
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(orderRepo, cartRepo, productRepo, resolver, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	escrowSvc, err := escrow.NewService(escrowRepo, orderRepo, userRepo, cfg.Solana, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	auctionSvc, err := auctions.NewService(auctionRepo, userRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	raffleSvc, err := raffles.NewService(raffleRepo, userRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Users:    userSvc,
		Listings: listingSvc,
		Cart:     cartSvc,
		Orders:   orderSvc,
		Escrow:   escrowSvc,
		Auctions: auctionSvc,
		Raffles:  raffleSvc,
	}, nil
}
