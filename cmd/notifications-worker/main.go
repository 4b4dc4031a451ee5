package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/folio-storefront/internal/notifications"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/db"
	"github.com/angelmondragon/folio-storefront/pkg/instance"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/outbox/idempotency"
	"github.com/angelmondragon/folio-storefront/pkg/pubsub"
	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notifications-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "notifications-worker"
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = db.DriverSQLite
	}

	logg = logger.New(logger.Options{
		ServiceName: "notifications-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		_ = multierr.Append(redisClient.Close(), dbClient.Close())
		os.Exit(1)
	}
	closeAll := func() error {
		return multierr.Combine(psClient.Close(), redisClient.Close(), dbClient.Close())
	}

	svc, err := buildService(cfg, logg, dbClient, redisClient, psClient)
	if err != nil {
		logg.Error(ctx, "failed to build notifications worker", err)
		_ = closeAll()
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting notifications worker")

	exitCode := 0
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notifications worker stopped unexpectedly", err)
		exitCode = 1
	}
	if err := closeAll(); err != nil {
		logg.Error(ctx, "errors during shutdown", err)
		exitCode = 1
	}
	logg.Info(ctx, "notifications worker stopped")
	os.Exit(exitCode)
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, psClient *pubsub.Client) (*Service, error) {
	tracker, err := idempotency.NewTracker(redisClient, cfg.PubSub.ProcessedEventTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency tracker: %w", err)
	}
	rates, err := currency.ParseRates(cfg.Currency.Rates)
	if err != nil {
		return nil, fmt.Errorf("currency rates: %w", err)
	}
	table, err := currency.NewTable(rates)
	if err != nil {
		return nil, fmt.Errorf("currency table: %w", err)
	}
	repo := notifications.NewRepository(dbClient.DB())

	subscriptions := map[string]string{
		"notifications-orders":  cfg.PubSub.OrdersSubscription,
		"notifications-contact": cfg.PubSub.ContactSubscription,
	}
	var consumers []consumer
	for name, subscription := range subscriptions {
		sub := psClient.Subscriber(subscription)
		if sub == nil {
			return nil, fmt.Errorf("subscription %q not configured", subscription)
		}
		c, err := notifications.NewConsumer(notifications.ConsumerParams{
			Name:         name,
			Subscription: sub,
			Store:        repo,
			Claims:       tracker,
			Formatter:    table,
			Logger:       logg,
		})
		if err != nil {
			return nil, fmt.Errorf("%s consumer: %w", name, err)
		}
		consumers = append(consumers, c)
	}

	return NewService(ServiceParams{
		Logger: logg,
		Pingers: map[string]pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   psClient,
		},
		Consumers: consumers,
	})
}
