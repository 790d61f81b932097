package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "EMAIL_USER", "CONTACT_RECIPIENT", "MAIL_PROVIDER",
		"SMTP_HOST", "SMTP_PORT", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW",
		"RATE_LIMIT_STORE", "METRICS_ENABLED", "TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "5000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	assert.Equal(t, "smtp", cfg.MailProvider)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, "memory", cfg.RateLimitStore)
	assert.True(t, cfg.MetricsEnabled)
	assert.Empty(t, cfg.ContactRecipient)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_USER", "inbox@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("MAIL_PROVIDER", " SendGrid ")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, ,https://www.example.com")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "1h")
	t.Setenv("RATE_LIMIT_STORE", "REDIS")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUST_PROXY", "true")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	assert.Equal(t, "inbox@example.com", cfg.EmailUser)
	assert.Equal(t, "app-password", cfg.EmailPass)
	assert.Equal(t, "sendgrid", cfg.MailProvider)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.RateLimitMax)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow)
	assert.Equal(t, "redis", cfg.RateLimitStore)
	assert.True(t, cfg.RedisTLS)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.TrustProxy)
}

func TestRecipientDefaultsToEmailUser(t *testing.T) {
	t.Setenv("EMAIL_USER", "owner@example.com")
	t.Setenv("CONTACT_RECIPIENT", "")
	assert.Equal(t, "owner@example.com", Load().ContactRecipient)

	t.Setenv("CONTACT_RECIPIENT", "sales@example.com")
	assert.Equal(t, "sales@example.com", Load().ContactRecipient)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	cfg := Load()
	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
}
