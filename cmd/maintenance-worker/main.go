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
	"go.uber.org/multierr"

	"github.com/angelmondragon/folio-storefront/internal/maintenance"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/db"
	"github.com/angelmondragon/folio-storefront/pkg/instance"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

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
	cfg.Service.Kind = "maintenance-worker"
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = db.DriverSQLite
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
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	worker, err := buildWorker(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build maintenance worker", err)
		_ = multierr.Append(redisClient.Close(), dbClient.Close())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
		"interval":    cfg.Maintenance.Interval.String(),
	})
	logg.Info(ctx, "starting maintenance worker")

	exitCode := 0
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		exitCode = 1
	}
	if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "errors during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "maintenance worker stopped")
	os.Exit(exitCode)
}

func buildWorker(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*maintenance.Worker, error) {
	conn := dbClient.DB()
	jobMetrics := metrics.NewMaintenanceMetrics(prometheus.DefaultRegisterer)

	outboxJob, err := maintenance.NewOutboxRetention(maintenance.RetentionParams{
		DB:      dbClient,
		Logger:  logg,
		Metrics: jobMetrics,
		Window:  cfg.Maintenance.OutboxRetention,
	}, outbox.NewRepository(conn), cfg.Outbox.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("outbox retention: %w", err)
	}
	dlqJob, err := maintenance.NewDLQRetention(maintenance.RetentionParams{
		DB:      dbClient,
		Logger:  logg,
		Metrics: jobMetrics,
		Window:  cfg.Maintenance.DLQRetention,
	}, outbox.NewDLQRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("dlq retention: %w", err)
	}

	lease, err := maintenance.NewRedisLease(redisClient, redisClient.MaintenanceLeaseKey(leaseEnv(cfg.App.Env)), cfg.Maintenance.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("lease: %w", err)
	}
	return maintenance.NewWorker(maintenance.WorkerParams{
		Logger:   logg,
		Schedule: maintenance.NewSchedule(outboxJob, dlqJob),
		Lease:    lease,
		Metrics:  jobMetrics,
		Interval: cfg.Maintenance.Interval,
	})
}

func leaseEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
