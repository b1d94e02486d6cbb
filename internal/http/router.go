package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Logger         zerolog.Logger
	JWTSecret      []byte
	RequestTimeout time.Duration

	// Metrics and MetricsHandler are optional.
	Metrics        *metrics.ServerMetrics
	MetricsHandler http.Handler
	// Health reports whether the backing store is reachable. Optional.
	Health func(ctx context.Context) error

	Cart     CartService
	Orders   OrderService
	Payments PaymentService
	Catalog  CatalogService
}

// NewRouter builds the storefront HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cartHandler := NewCartHandler(cfg.Cart, timeout)
	orderHandler := NewOrderHandler(cfg.Orders, timeout)
	paymentHandler := NewPaymentHandler(cfg.Payments, timeout)
	catalogHandler := NewCatalogHandler(cfg.Catalog, timeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(MetricsMiddleware(cfg.Metrics))
	}
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))
	r.Use(AuthMiddleware(cfg.JWTSecret))

	r.Get("/health", healthHandler(cfg.Health))
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Get("/products", catalogHandler.ListProducts)
	r.Get("/products/{id}", catalogHandler.GetProduct)
	r.Get("/categories", catalogHandler.ListCategories)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/add", cartHandler.AddItem)
			r.Post("/update", cartHandler.UpdateQuantity)
			r.Post("/remove", cartHandler.RemoveItem)
		})

		r.Get("/checkout", orderHandler.PreviewCheckout)
		r.Post("/checkout", orderHandler.Checkout)
		r.Get("/orders", orderHandler.ListOrders)
		r.Get("/order/{id}", orderHandler.GetOrder)
		r.Delete("/order/{id}", orderHandler.CancelOrder)
		r.Get("/order/{id}/payment", paymentHandler.GetPayment)

		r.Post("/create-checkout-session", paymentHandler.CreateCheckoutSession)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin)

		r.Get("/products", catalogHandler.ListAllProducts)
		r.Post("/product/add", catalogHandler.CreateProduct)
		r.Post("/product/update/{id}", catalogHandler.UpdateProduct)
		r.Post("/product/toggle-visibility/{id}", catalogHandler.ToggleVisibility)
		r.Put("/order/{id}/status", orderHandler.UpdateStatus)
		r.Post("/order/{id}/payment/complete", paymentHandler.CompletePayment)
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
