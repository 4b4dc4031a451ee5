package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/folio-storefront/api/controllers"
	"github.com/angelmondragon/folio-storefront/api/middleware"
	"github.com/angelmondragon/folio-storefront/internal/auth"
	"github.com/angelmondragon/folio-storefront/internal/cart"
	checkoutsvc "github.com/angelmondragon/folio-storefront/internal/checkout"
	"github.com/angelmondragon/folio-storefront/internal/contact"
	"github.com/angelmondragon/folio-storefront/internal/notifications"
	"github.com/angelmondragon/folio-storefront/internal/orders"
	"github.com/angelmondragon/folio-storefront/internal/products"
	"github.com/angelmondragon/folio-storefront/internal/projects"
	"github.com/angelmondragon/folio-storefront/pkg/auth/session"
	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/currency"
	"github.com/angelmondragon/folio-storefront/pkg/enums"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/paystack"
	"github.com/angelmondragon/folio-storefront/pkg/redis"
)

type rateLimiter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps carries everything the HTTP surface is built from. Nil stores disable
// the middleware that needs them.
type Deps struct {
	Pingers     map[string]controllers.Pinger
	RateLimiter rateLimiter
	Idempotency redis.IdempotencyStore
	Sessions    session.AccessSessionChecker
	Gatherer    prometheus.Gatherer
	Auth        auth.Service
	Register    auth.RegisterService
	Cart        cart.Service
	Checkout    checkoutsvc.Service
	Paystack    *paystack.Client
	Currency    *currency.Table
	Products    products.Service
	Projects    projects.Service
	Orders      orders.Service
	Contact     contact.Service
	Inbox       notifications.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	contactPolicy := middleware.NewRateLimitPolicy(
		"contact",
		cfg.RateLimit.ContactWindow,
		cfg.RateLimit.ContactIPLimit,
		cfg.RateLimit.ContactEmailLimit,
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/paystack", controllers.PaystackWebhook(deps.Checkout, deps.Paystack, logg))

		r.Get("/currencies", controllers.CurrencyList(deps.Currency, logg))
		r.Get("/currencies/convert", controllers.CurrencyConvert(deps.Currency, logg))

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/projects", controllers.ProjectList(deps.Projects, logg))
		r.Get("/projects/{projectId}", controllers.ProjectDetail(deps.Projects, logg))

		r.Get("/orders/confirmation", controllers.OrderConfirmation(deps.Orders, deps.Currency, logg))

		r.With(
			middleware.RateLimit(contactPolicy, deps.RateLimiter, logg),
			middleware.Idempotency(deps.Idempotency, logg),
		).Post("/contact", controllers.ContactSubmit(deps.Contact, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(cfg.Cart, logg))
			// replays are scoped to the browsing session, so this sits after CartSession
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
				r.Put("/overlay", controllers.CartSetOverlay(deps.Cart, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutGet(deps.Checkout, logg))
				r.Post("/", controllers.CheckoutSubmit(deps.Checkout, logg))
				r.Put("/currency", controllers.CheckoutSelectCurrency(deps.Checkout, logg))
				r.Get("/{reference}", controllers.CheckoutSettle(deps.Checkout, logg))
				r.Post("/{reference}/callback", controllers.CheckoutCallback(deps.Checkout, logg))
				r.Post("/{reference}/close", controllers.CheckoutClose(deps.Checkout, logg))
			})
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminAuthRegister(deps.Register, deps.Auth, logg))
		}
		r.With(middleware.RateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AdminAuthLogin(deps.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AdminAuthLogout(deps.Auth, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleEditor))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))
		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.Products, logg))
			r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
		})
		r.Route("/v1/projects", func(r chi.Router) {
			r.Post("/", controllers.AdminProjectCreate(deps.Projects, logg))
			r.Put("/{projectId}", controllers.AdminProjectUpdate(deps.Projects, logg))
			r.Delete("/{projectId}", controllers.AdminProjectDelete(deps.Projects, logg))
		})
		r.Get("/v1/orders", controllers.AdminOrderList(deps.Orders, logg))
		r.Get("/v1/contact", controllers.AdminContactList(deps.Contact, logg))
		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.AdminNotificationList(deps.Inbox, logg))
			r.Post("/read", controllers.AdminNotificationReadAll(deps.Inbox, logg))
			r.Post("/{notificationId}/read", controllers.AdminNotificationRead(deps.Inbox, logg))
		})
	})

	return r
}
