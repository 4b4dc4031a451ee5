package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/folio-storefront/api/controllers"
	"github.com/angelmondragon/folio-storefront/api/routes"
	"github.com/angelmondragon/folio-storefront/internal/auth"
	"github.com/angelmondragon/folio-storefront/internal/cart"
	"github.com/angelmondragon/folio-storefront/internal/checkout"
	"github.com/angelmondragon/folio-storefront/internal/contact"
	"github.com/angelmondragon/folio-storefront/internal/notifications"
	"github.com/angelmondragon/folio-storefront/internal/orders"
	"github.com/angelmondragon/folio-storefront/internal/products"
	"github.com/angelmondragon/folio-storefront/internal/projects"
	"github.com/angelmondragon/folio-storefront/internal/users"
	"github.com/angelmondragon/folio-storefront/pkg/auth/session"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/db"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
	"github.com/angelmondragon/folio-storefront/pkg/paystack"
	"github.com/angelmondragon/folio-storefront/pkg/redis"
	"github.com/angelmondragon/folio-storefront/pkg/whatsapp"
)

// buildDeps wires every service the router serves. Cart and checkout state
// live in Redis unless FOLIO_MEMORY_STATE is set for a single-process run.
func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Deps, error) {
	conn := dbClient.DB()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT.Expiration())
	if err != nil {
		return routes.Deps{}, fmt.Errorf("session manager: %w", err)
	}
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("auth service: %w", err)
	}
	registerService, err := auth.NewRegisterService(dbClient, cfg.Password)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("register service: %w", err)
	}

	productService, err := products.NewService(products.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("product service: %w", err)
	}
	projectService, err := projects.NewService(projects.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("project service: %w", err)
	}

	events := outbox.NewService(outbox.NewRepository(conn), logg)
	orderService, err := orders.NewService(orders.NewRepository(conn), dbClient, events)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("order service: %w", err)
	}
	contactService, err := contact.NewService(contact.NewRepository(conn), dbClient, events)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("contact service: %w", err)
	}

	inboxService, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("notifications service: %w", err)
	}

	rates, err := currency.ParseRates(cfg.Currency.Rates)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("currency rates: %w", err)
	}
	table, err := currency.NewTable(rates)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("currency table: %w", err)
	}

	var (
		cartState cart.StateStore
		sessions  checkout.SessionStore
	)
	if cfg.FeatureFlags.MemoryState {
		cartState = cart.NewMemoryState(cfg.Cart.SessionTTL)
		sessions = checkout.NewMemorySessions()
	} else {
		redisState, err := cart.NewRedisState(redisClient, cfg.Cart.SessionTTL)
		if err != nil {
			return routes.Deps{}, fmt.Errorf("cart state: %w", err)
		}
		redisSessions, err := checkout.NewRedisSessions(redisClient, cfg.Cart.SessionTTL)
		if err != nil {
			return routes.Deps{}, fmt.Errorf("checkout sessions: %w", err)
		}
		cartState, sessions = redisState, redisSessions
	}
	cartService, err := cart.NewService(cartState, productService)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("cart service: %w", err)
	}

	paystackClient := paystack.NewClient(cfg.Paystack)
	params := checkout.ServiceParams{
		Sessions:         sessions,
		Cart:             cartService,
		Orders:           orderService,
		Currency:         table,
		Provider:         checkout.NewPaystackProvider(paystackClient, cfg.FeatureFlags.VerifyPayments),
		Metrics:          metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Logger:           logg,
		DefaultCurrency:  enums.Currency(cfg.Checkout.DefaultCurrency),
		WidgetTimeout:    cfg.Checkout.WidgetTimeout,
		ConfirmationPath: cfg.Checkout.ConfirmationPath,
	}
	// the hand-off is optional; a nil interface keeps it disabled
	if cfg.HandOff.WhatsAppPhone != "" {
		params.HandOff = whatsapp.NewLinker(cfg.HandOff.WhatsAppPhone, cfg.HandOff.Greeting)
	}
	checkoutService, err := checkout.NewService(params)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("checkout service: %w", err)
	}

	return routes.Deps{
		Pingers: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		RateLimiter: redisClient,
		Idempotency: redisClient,
		Sessions:    sessionManager,
		Gatherer:    prometheus.DefaultGatherer,
		Auth:        authService,
		Register:    registerService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Paystack:    paystackClient,
		Currency:    table,
		Products:    productService,
		Projects:    projectService,
		Orders:      orderService,
		Contact:     contactService,
		Inbox:       inboxService,
	}, nil
}
