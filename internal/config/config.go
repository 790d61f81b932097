package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Mail account used by the SMTP transport and, by default, as the recipient.
	EmailUser        string
	EmailPass        string
	ContactRecipient string
	MailProvider     string
	MailFrom         string
	SMTPHost         string
	SMTPPort         int

	SendGridAPIKey string
	ResendAPIKey   string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool

	RateLimitMax    int
	RateLimitWindow time.Duration
	RateLimitStore  string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool

	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	emailUser := getEnv("EMAIL_USER", "")
	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		EmailUser:        emailUser,
		EmailPass:        getEnv("EMAIL_PASS", ""),
		ContactRecipient: getEnv("CONTACT_RECIPIENT", emailUser),
		MailProvider:     strings.ToLower(strings.TrimSpace(getEnv("MAIL_PROVIDER", "smtp"))),
		MailFrom:         getEnv("MAIL_FROM", ""),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TrustProxy:         getEnvAsBool("TRUST_PROXY", false),

		RateLimitMax:    getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", 10*time.Minute),
		RateLimitStore:  strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_STORE", "memory"))),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
