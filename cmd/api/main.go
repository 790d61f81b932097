package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/contact-relay/cmd/mainconfig"
	"github.com/wolfman30/contact-relay/internal/api/router"
	appconfig "github.com/wolfman30/contact-relay/internal/config"
	"github.com/wolfman30/contact-relay/internal/contact"
	"github.com/wolfman30/contact-relay/internal/notify"
	"github.com/wolfman30/contact-relay/internal/observability/metrics"
	"github.com/wolfman30/contact-relay/internal/ratelimit"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

const janitorInterval = 5 * time.Minute

func main() {
	// A missing .env is fine; the real environment still applies.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting contact-relay API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"mail_provider", cfg.MailProvider,
		"rate_limit_store", cfg.RateLimitStore,
		"trust_proxy", cfg.TrustProxy,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sender, err := setupMailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure mail transport", "error", err)
		os.Exit(1)
	}

	limiter, closeLimiter, err := setupRateLimitStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure rate limiter", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	var (
		metricsHandler http.Handler
		contactMetrics *metrics.ContactMetrics
	)
	if cfg.MetricsEnabled {
		metricsHandler, contactMetrics = setupMetrics()
	}

	contactHandler := contact.NewHandler(sender, contact.Config{
		Recipient: cfg.ContactRecipient,
		Provider:  cfg.MailProvider,
		Metrics:   contactMetrics,
	}, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		ContactHandler:     contactHandler,
		RateLimitStore:     limiter,
		Metrics:            contactMetrics,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustProxy:         cfg.TrustProxy,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMailSender builds the transport named by MAIL_PROVIDER. Credentials are
// not validated here; bad ones surface as send failures.
func setupMailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.MailSender, error) {
	switch cfg.MailProvider {
	case "", "smtp":
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.EmailUser,
			Password:  cfg.EmailPass,
			FromEmail: cfg.MailFrom,
		}, logger), nil
	case "sendgrid":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.MailFrom,
		}, logger), nil
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return notify.NewSESSender(mainconfig.NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.MailFrom,
		}, logger), nil
	case "resend":
		return notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.MailFrom,
		}, logger), nil
	case "stub":
		logger.Warn("using stub mail sender; messages are logged, not delivered")
		return notify.NewStubSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q", cfg.MailProvider)
	}
}

// setupRateLimitStore returns the store named by RATE_LIMIT_STORE and a
// function releasing its resources.
func setupRateLimitStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (ratelimit.Store, func(), error) {
	switch cfg.RateLimitStore {
	case "", "memory":
		store := ratelimit.NewMemoryStore(cfg.RateLimitMax, cfg.RateLimitWindow)
		store.StartJanitor(ctx, janitorInterval)
		return store, func() {}, nil
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			// Limiting fails open per request, so an unreachable Redis is not fatal.
			logger.Warn("redis ping failed; rate limiting will fail open until it recovers", "error", err, "addr", cfg.RedisAddr)
		}
		closeFn := func() {
			if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				logger.Warn("failed to close redis client", "error", err)
			}
		}
		return ratelimit.NewRedisStore(client, "contact-relay:ratelimit", cfg.RateLimitMax, cfg.RateLimitWindow), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown RATE_LIMIT_STORE %q", cfg.RateLimitStore)
	}
}

// setupMetrics registers the contact metrics plus Go runtime collectors on a
// dedicated registry and returns its exposition handler.
func setupMetrics() (http.Handler, *metrics.ContactMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewContactMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}
