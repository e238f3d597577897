package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/scrapscan-backend/api/routes"
	"github.com/angelmondragon/scrapscan-backend/internal/barcode"
	"github.com/angelmondragon/scrapscan-backend/internal/ledger"
	"github.com/angelmondragon/scrapscan-backend/internal/nomenclature"
	product "github.com/angelmondragon/scrapscan-backend/internal/products"
	"github.com/angelmondragon/scrapscan-backend/internal/scrap"
	"github.com/angelmondragon/scrapscan-backend/internal/scrapconfig"
	"github.com/angelmondragon/scrapscan-backend/internal/stock"
	"github.com/angelmondragon/scrapscan-backend/internal/warehouses"
	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/db"
	"github.com/angelmondragon/scrapscan-backend/pkg/instance"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
	"github.com/angelmondragon/scrapscan-backend/pkg/migrate"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox"
	"github.com/angelmondragon/scrapscan-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	scrapMetrics := metrics.NewScrapMetrics(prometheus.DefaultRegisterer)
	products := product.NewRepository(dbClient.DB())

	parsers, err := nomenclature.NewProvider(nomenclature.NewRepository(dbClient.DB()), cfg.Barcode)
	if err != nil {
		logg.Error(context.Background(), "failed to create nomenclature provider", err)
		os.Exit(1)
	}
	resolver, err := barcode.NewResolver(barcode.ResolverParams{
		Parsers:  parsers,
		Products: products,
		Config:   cfg.Barcode,
		Metrics:  scrapMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create barcode resolver", err)
		os.Exit(1)
	}

	stockService := stock.NewService(products)

	configService, err := scrapconfig.NewService(scrapconfig.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create scrap config service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	scrapService, err := scrap.NewService(scrap.ServiceParams{
		Tx:        dbClient,
		Orders:    scrap.NewRepository(dbClient.DB()),
		Tags:      scrap.NewTagRepository(dbClient.DB()),
		Products:  products,
		Ledger:    ledgerService,
		Locations: warehouses.NewRepository(dbClient.DB()),
		Stock:     stockService,
		Outbox:    outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Metrics:   scrapMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scrap service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			configService,
			resolver,
			stockService,
			scrapService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	if err := multierr.Combine(dbClient.Close(), redisClient.Close()); err != nil {
		logg.Error(context.Background(), "error closing clients", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
