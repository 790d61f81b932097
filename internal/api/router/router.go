package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/contact-relay/internal/contact"
	httpmiddleware "github.com/wolfman30/contact-relay/internal/http/middleware"
	"github.com/wolfman30/contact-relay/internal/observability/metrics"
	"github.com/wolfman30/contact-relay/internal/ratelimit"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	ContactHandler *contact.Handler
	// RateLimitStore guards POST /contact; nil disables limiting.
	RateLimitStore     ratelimit.Store
	Metrics            *metrics.ContactMetrics
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// TrustProxy mounts RealIP so forwarded headers replace the peer address.
	TrustProxy bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/", cfg.ContactHandler.Welcome)
	r.Get("/health", cfg.ContactHandler.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	contactRoute := r.With()
	if cfg.RateLimitStore != nil {
		contactRoute = r.With(httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Store:   cfg.RateLimitStore,
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		}))
	}
	contactRoute.Post("/contact", cfg.ContactHandler.Submit)

	return r
}
