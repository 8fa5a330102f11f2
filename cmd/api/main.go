package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/rifazone/rifazone-backend/api/routes"
	"github.com/rifazone/rifazone-backend/internal/checkout"
	"github.com/rifazone/rifazone-backend/internal/partners"
	"github.com/rifazone/rifazone-backend/internal/prizes"
	"github.com/rifazone/rifazone-backend/internal/raffles"
	"github.com/rifazone/rifazone-backend/internal/referrals"
	"github.com/rifazone/rifazone-backend/internal/sales"
	"github.com/rifazone/rifazone-backend/internal/withdrawals"
	"github.com/rifazone/rifazone-backend/pkg/config"
	"github.com/rifazone/rifazone-backend/pkg/db"
	"github.com/rifazone/rifazone-backend/pkg/logger"
	"github.com/rifazone/rifazone-backend/pkg/metrics"
	"github.com/rifazone/rifazone-backend/pkg/migrate"
	"github.com/rifazone/rifazone-backend/pkg/outbox"
	"github.com/rifazone/rifazone-backend/pkg/pix"
	"github.com/rifazone/rifazone-backend/pkg/redis"
)

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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	pixClient, err := pix.NewClient(context.Background(), cfg.Pix, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pix client", err)
		os.Exit(1)
	}

	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	raffleRepo := raffles.NewRepository(dbClient.DB())
	partnerRepo := partners.NewRepository(dbClient.DB())
	referralRepo := referrals.NewRepository(dbClient.DB())
	prizeRepo := prizes.NewRepository(dbClient.DB())
	saleRepo := sales.NewRepository(dbClient.DB())
	withdrawalRepo := withdrawals.NewRepository(dbClient.DB())

	raffleService, err := raffles.NewService(raffleRepo)
	requireService(logg, "raffles", err)
	partnerService, err := partners.NewService(partnerRepo, dbClient, outboxService)
	requireService(logg, "partners", err)
	referralService, err := referrals.NewService(referralRepo, partnerRepo, outboxService)
	requireService(logg, "referrals", err)
	prizeService, err := prizes.NewService(prizeRepo, raffleRepo, outboxService)
	requireService(logg, "prizes", err)

	allocator := sales.NewAllocator(cfg.Sales.AllocationRetryLimit, domainMetrics)
	saleService, err := sales.NewService(
		saleRepo,
		raffleRepo,
		partnerRepo,
		referralService,
		prizeService,
		allocator,
		dbClient,
		outboxService,
		domainMetrics,
		cfg.Sales.MaxTicketsPerSale,
	)
	requireService(logg, "sales", err)

	checkoutService, err := checkout.NewService(raffleRepo, saleService, pixClient, logg)
	requireService(logg, "checkout", err)
	withdrawalService, err := withdrawals.NewService(withdrawalRepo, partnerRepo, dbClient, outboxService, domainMetrics)
	requireService(logg, "withdrawals", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			domainMetrics,
			raffleService,
			partnerService,
			referralService,
			saleService,
			checkoutService,
			withdrawalService,
			prizeService,
			pixClient,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case <-shutdownCtx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = multierr.Combine(
		server.Shutdown(drainCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(ctx, "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
