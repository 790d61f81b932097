package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/contact-relay/internal/config"
	"github.com/wolfman30/contact-relay/internal/notify"
	"github.com/wolfman30/contact-relay/internal/ratelimit"
	"github.com/wolfman30/contact-relay/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveSubmission("sent")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "contact_submissions_total") {
		t.Fatalf("expected submissions counter to be exported")
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("expected go runtime metrics to be exported")
	}
}

func TestSetupMailSenderProviders(t *testing.T) {
	logger := logging.New("error")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	tests := []struct {
		provider string
		check    func(t *testing.T, s notify.MailSender)
	}{
		{"smtp", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.SMTPSender{}, s) }},
		{"", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.SMTPSender{}, s) }},
		{"sendgrid", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.SendGridSender{}, s) }},
		{"ses", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.SESSender{}, s) }},
		{"resend", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.ResendSender{}, s) }},
		{"stub", func(t *testing.T, s notify.MailSender) { assert.IsType(t, &notify.StubSender{}, s) }},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &appconfig.Config{
				MailProvider:       tt.provider,
				SMTPHost:           "smtp.gmail.com",
				SMTPPort:           587,
				AWSRegion:          "us-east-1",
				AWSAccessKeyID:     "test",
				AWSSecretAccessKey: "test",
			}
			sender, err := setupMailSender(context.Background(), cfg, logger)
			require.NoError(t, err)
			tt.check(t, sender)
		})
	}
}

func TestSetupMailSenderUnknownProvider(t *testing.T) {
	_, err := setupMailSender(context.Background(), &appconfig.Config{MailProvider: "pigeon"}, logging.New("error"))
	require.Error(t, err)
}

func TestSetupRateLimitStoreMemory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &appconfig.Config{RateLimitStore: "memory", RateLimitMax: 5, RateLimitWindow: 10 * time.Minute}

	store, closeFn, err := setupRateLimitStore(ctx, cfg, logging.New("error"))
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &ratelimit.MemoryStore{}, store)
}

func TestSetupRateLimitStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RateLimitStore: "redis", RedisAddr: mr.Addr(), RateLimitMax: 1, RateLimitWindow: time.Minute}

	store, closeFn, err := setupRateLimitStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer closeFn()

	first, err := store.Hit(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	second, err := store.Hit(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.False(t, second.Allowed)
	assert.True(t, mr.Exists("contact-relay:ratelimit:203.0.113.7"))
}

func TestSetupRateLimitStoreUnknown(t *testing.T) {
	_, _, err := setupRateLimitStore(context.Background(), &appconfig.Config{RateLimitStore: "etcd"}, logging.New("error"))
	require.Error(t, err)
}
