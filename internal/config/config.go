package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AuthProviderSessions = "sessions"
	AuthProviderFirebase = "firebase"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	PostgresURL    string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueryCacheTTL time.Duration

	KafkaBrokers []string
	EventsTopic  string

	AuthProvider      string
	FirebaseProjectID string
	SessionTTL        time.Duration

	StripeSecretKey       string
	StripeSecretKeySecret string
	StripeWebhookSecret   string
	CheckoutSuccessURL    string
	CheckoutCancelURL     string
	CheckoutCurrency      string

	OTLPEndpoint string

	EmailServiceURL string
	SendGridAPIKey  string
	EmailFrom       string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("PORT", "8080"),

		PostgresURL:    os.Getenv("POSTGRES_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		QueryCacheTTL: getEnvDuration("QUERY_CACHE_TTL", time.Minute),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		EventsTopic:  getEnv("EVENTS_TOPIC", "storefront.events"),

		AuthProvider:      getEnv("AUTH_PROVIDER", AuthProviderSessions),
		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),
		SessionTTL:        getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeSecretKeySecret: os.Getenv("STRIPE_SECRET_KEY_SECRET"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart"),
		CheckoutCurrency:      getEnv("CHECKOUT_CURRENCY", "brl"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		EmailServiceURL: os.Getenv("EMAIL_SERVICE_URL"),
		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:       getEnv("EMAIL_FROM", "no-reply@storefront.local"),
	}
}

// Validate checks the settings the storefront API cannot start without.
// Payment credentials are optional here: checkout reports their absence
// per request.
func (c Config) Validate() error {
	var errs []error
	if c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL environment variable is required"))
	}
	switch c.AuthProvider {
	case AuthProviderSessions:
	case AuthProviderFirebase:
		if c.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required when AUTH_PROVIDER=firebase"))
		}
	default:
		errs = append(errs, errors.New("AUTH_PROVIDER must be one of: sessions, firebase"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
