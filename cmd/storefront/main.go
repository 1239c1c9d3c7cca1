package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/address"
	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/logger"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/notify"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/payment"
	"github.com/joao-fontenele/storefront/internal/querycache"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const version = "0.1.0"

func main() {
	ctx := context.Background()
	cfg := config.Load()

	log := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	svc := telemetry.Service{Name: "storefront", Version: version, Environment: cfg.AppEnv}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, svc, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(svc)
	if err != nil {
		log.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	hub := notify.NewHub(log)
	publishers := notify.Fanout{hub}

	var cache *querycache.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, query cache disabled", "error", err)
		} else {
			cache = querycache.New(rdb, cfg.QueryCacheTTL, log)
			hub.Subscribe(cache)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic)
		defer func() { _ = producer.Close() }()
		publishers = append(publishers, producer)
	}

	authn, err := newAuthenticator(ctx, cfg, db, log)
	if err != nil {
		log.Error("failed to initialize auth", "error", err)
		os.Exit(1)
	}

	provider, err := newPaymentProvider(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize payment provider", "error", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(db)
	addressRepo := address.NewRepository(db)
	cartRepo := cart.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	catalogHandler := catalog.NewHandler(catalogRepo, log)
	addressHandler := address.NewHandler(address.NewService(addressRepo, authn, publishers, cache, log), log)
	cartHandler := cart.NewHandler(cart.NewService(cartRepo, catalogRepo, addressRepo, authn, publishers, cache, log), log)
	checkoutHandler := checkout.NewHandler(checkout.NewService(cartRepo, addressRepo, orderRepo, provider, authn, publishers, log), log)
	ordersHandler := orders.NewHandler(orderRepo, authn, cache, log)
	webhookHandler := payment.NewWebhookHandler(cfg.StripeWebhookSecret, orderRepo, publishers, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleListProducts))
	mux.HandleFunc("GET /products/{slug}", telemetry.WithHTTPRoute(catalogHandler.HandleGetProduct))
	mux.HandleFunc("GET /categories", telemetry.WithHTTPRoute(catalogHandler.HandleListCategories))

	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(cartHandler.HandleAddItem))
	mux.HandleFunc("POST /cart/variants/{variantId}/increase", telemetry.WithHTTPRoute(cartHandler.HandleIncrease))
	mux.HandleFunc("POST /cart/items/{itemId}/decrease", telemetry.WithHTTPRoute(cartHandler.HandleDecrease))
	mux.HandleFunc("DELETE /cart/items/{itemId}", telemetry.WithHTTPRoute(cartHandler.HandleRemove))
	mux.HandleFunc("PUT /cart/shipping-address", telemetry.WithHTTPRoute(cartHandler.HandleSetShippingAddress))

	mux.HandleFunc("GET /shipping-addresses", telemetry.WithHTTPRoute(addressHandler.HandleList))
	mux.HandleFunc("POST /shipping-addresses", telemetry.WithHTTPRoute(addressHandler.HandleCreate))

	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleInitiate))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(ordersHandler.HandleGet))
	mux.HandleFunc("POST /webhooks/stripe", telemetry.WithHTTPRoute(webhookHandler.HandleStripe))

	var handler http.Handler = mux
	handler = middleware.Recoverer(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(handler, "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if sessions, ok := authn.(*auth.SessionStore); ok {
		go purgeSessions(runCtx, sessions, log)
	}

	go func() {
		log.Info("starting storefront service", "port", cfg.Port, "auth_provider", cfg.AuthProvider, "payments", provider != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func newAuthenticator(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (auth.Authenticator, error) {
	if cfg.AuthProvider == config.AuthProviderFirebase {
		client, err := auth.NewFirebaseClient(ctx, cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
		log.Info("using firebase authentication", "project_id", cfg.FirebaseProjectID)
		return auth.NewFirebaseAuthenticator(client), nil
	}
	return auth.NewSessionStore(db), nil
}

// newPaymentProvider returns nil when no Stripe key is configured; checkout
// then fails per request with a configuration error.
func newPaymentProvider(ctx context.Context, cfg config.Config, log *slog.Logger) (payment.Provider, error) {
	key, err := cfg.StripeKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == "" {
		log.Warn("STRIPE_SECRET_KEY not set, checkout disabled")
		return nil, nil
	}

	stripeProvider, err := payment.NewStripeProvider(payment.StripeConfig{
		SecretKey:  key,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		Currency:   cfg.CheckoutCurrency,
	})
	if err != nil {
		return nil, err
	}

	return payment.NewBreaker(stripeProvider, payment.DefaultBreakerSettings(), log), nil
}

func purgeSessions(ctx context.Context, sessions *auth.SessionStore, log *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				log.Error("failed to purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				log.Info("purged expired sessions", "count", n)
			}
		}
	}
}
