package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/scrapscan-backend/internal/maintenance"
	"github.com/angelmondragon/scrapscan-backend/internal/scrap"
	"github.com/angelmondragon/scrapscan-backend/pkg/config"
	"github.com/angelmondragon/scrapscan-backend/pkg/db"
	"github.com/angelmondragon/scrapscan-backend/pkg/instance"
	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
	"github.com/angelmondragon/scrapscan-backend/pkg/migrate"
	"github.com/angelmondragon/scrapscan-backend/pkg/outbox"
	"github.com/angelmondragon/scrapscan-backend/pkg/redis"
)

const lockKeyFormat = "scrapscan:maintenance:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "maintenance-worker",
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

	lock, err := maintenance.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Maintenance.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance lock", err)
		os.Exit(1)
	}

	outboxJob, err := maintenance.NewOutboxRetentionJob(maintenance.OutboxRetentionParams{
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Maintenance.OutboxRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	draftJob, err := maintenance.NewScrapDraftJob(maintenance.ScrapDraftParams{
		DB:     dbClient,
		Orders: scrap.NewRepository(dbClient.DB()),
		TTL:    cfg.Maintenance.ScrapDraftTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scrap draft job", err)
		os.Exit(1)
	}

	runner, err := maintenance.NewRunner(maintenance.RunnerParams{
		Logger:   logg,
		Registry: maintenance.NewRegistry(outboxJob, draftJob),
		Lock:     lock,
		Metrics:  metrics.NewMaintenanceMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create maintenance runner", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"interval": cfg.Maintenance.Interval.String(),
	})
	logg.Info(ctx, "starting maintenance worker")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "maintenance worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
