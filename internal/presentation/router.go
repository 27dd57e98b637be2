// Package presentation wires the HTTP handlers and middleware into a router.
package presentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/presentation/handlers"
	"github.com/bimakw/wallet-proxy/internal/presentation/middleware"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Health  *handlers.HealthHandler
	Wallet  *handlers.WalletHandler
	Webhook *handlers.WebhookHandler
	Stats   *handlers.StatsHandler
}

// NewRouter builds the HTTP router with the middleware stack
func NewRouter(cfg config.APIConfig, h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	// Probes (no rate limiting)
	r.Get("/ready", h.Health.Ready)
	r.Get("/live", h.Health.Live)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhook", h.Webhook.Receive)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health.Health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateLimitWindow))
			h.Wallet.RegisterRoutes(r)
			r.Get("/stats", h.Stats.GetCacheStats)
		})
	})

	return r
}
