package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gethsun1/solmarket-backend/internal/auctions"
	"github.com/gethsun1/solmarket-backend/internal/cart"
	"github.com/gethsun1/solmarket-backend/internal/cron"
	"github.com/gethsun1/solmarket-backend/internal/escrow"
	"github.com/gethsun1/solmarket-backend/internal/orders"
	"github.com/gethsun1/solmarket-backend/internal/raffles"
	"github.com/gethsun1/solmarket-backend/internal/users"
	"github.com/gethsun1/solmarket-backend/pkg/config"
	"github.com/gethsun1/solmarket-backend/pkg/db"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/metrics"
	"github.com/gethsun1/solmarket-backend/pkg/migrate"
	"github.com/gethsun1/solmarket-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	escrowRepo := escrow.NewRepository(conn)
	auctionRepo := auctions.NewRepository(conn)
	raffleRepo := raffles.NewRepository(conn)

	escrowSvc, err := escrow.NewService(escrowRepo, orderRepo, userRepo, cfg.Solana, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}
	auctionSvc, err := auctions.NewService(auctionRepo, userRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create auction service", err)
		os.Exit(1)
	}
	raffleSvc, err := raffles.NewService(raffleRepo, userRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create raffle service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCronJobMetrics(registry)

	escrowJob, err := cron.NewEscrowExpiryJob(cron.EscrowExpiryJobParams{
		Logger:  logg,
		Escrow:  escrowSvc,
		Metrics: metricsCollector,
		Limit:   cfg.Cron.ExpirySweepLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow expiry job", err)
		os.Exit(1)
	}
	staleCartJob, err := cron.NewStaleCartJob(cron.StaleCartJobParams{
		Logger:  logg,
		Carts:   cartRepo,
		Metrics: metricsCollector,
		MaxAge:  cfg.Cron.StaleCartMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale cart job", err)
		os.Exit(1)
	}
	marketCloseJob, err := cron.NewMarketCloseJob(cron.MarketCloseJobParams{
		Logger:   logg,
		Auctions: auctionSvc,
		Raffles:  raffleSvc,
		Metrics:  metricsCollector,
		Limit:    cfg.Cron.ExpirySweepLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create market close job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker:"+cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(escrowJob, staleCartJob, marketCloseJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	go serveMetrics(ctx, logg, registry, cfg.Cron.MetricsPort)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, registry *prometheus.Registry, port string) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
