package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/contact-relay/internal/observability/metrics"
	"github.com/wolfman30/contact-relay/internal/ratelimit"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

// RateLimitMessage is the plain-text body sent with 429 responses.
const RateLimitMessage = "Too many requests, please try again later."

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Store   ratelimit.Store
	Logger  *logging.Logger
	Metrics *metrics.ContactMetrics
	// Now defaults to time.Now; used for Retry-After.
	Now func() time.Time
}

// RateLimit returns an HTTP middleware that counts every request per client
// address and rejects those over the limit with 429 Too Many Requests before
// they reach next. Store failures let the request through.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			res, err := cfg.Store.Hit(r.Context(), ip)
			if err != nil {
				cfg.Logger.Error("rate limit check failed", "error", err, "remote_ip", ip)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter(cfg.Now()).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				cfg.Metrics.ObserveRateLimited()
				cfg.Logger.Warn("rate limit exceeded", "remote_ip", ip, "path", r.URL.Path)
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("X-Content-Type-Options", "nosniff")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(RateLimitMessage))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote address without the port. Forwarded
// headers are not read here; when the proxy is trusted, chi's RealIP has
// already replaced RemoteAddr.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
