package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/knowledgehub/internal/events"
	"github.com/yourorg/knowledgehub/internal/featureflags"
	"github.com/yourorg/knowledgehub/internal/handler"
	"github.com/yourorg/knowledgehub/internal/infrastructure/logger"
	"github.com/yourorg/knowledgehub/internal/infrastructure/payment"
	"github.com/yourorg/knowledgehub/internal/infrastructure/redis"
	"github.com/yourorg/knowledgehub/internal/observability/metrics"
	"github.com/yourorg/knowledgehub/internal/observability/tracing"
	"github.com/yourorg/knowledgehub/internal/repository"
	"github.com/yourorg/knowledgehub/internal/security/audit"
	"github.com/yourorg/knowledgehub/internal/security/auth"
	"github.com/yourorg/knowledgehub/internal/security/middleware"
	"github.com/yourorg/knowledgehub/internal/security/ratelimit"
	"github.com/yourorg/knowledgehub/internal/service"
	"github.com/yourorg/knowledgehub/internal/worker"
	"github.com/yourorg/knowledgehub/pkg/config"
	"github.com/yourorg/knowledgehub/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting KnowledgeHub server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	shutdownTracing, err := tracing.Init(ctx, log, "knowledgehub", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres and run migrations
	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.DatabaseHost,
		Port:     cfg.DatabasePort,
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Initialize Redis (entitlement cache); optional
	var redisClient *redis.Client
	if featureflags.EnabledDefault(featureflags.EntitlementCache, true) {
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	} else {
		log.Info("entitlement cache disabled, lookups hit Postgres directly")
	}

	// 6. Initialize repositories
	db := pool.GetDB()
	userRepo := repository.NewPostgresUserRepository(db, log)
	catalogRepo := repository.NewPostgresCatalogRepository(db, log)
	purchaseRepo := repository.NewPostgresPurchaseRepository(db, log)
	validationRepo := repository.NewPostgresValidationRepository(db, log)
	certificationRepo := repository.NewPostgresCertificationRepository(db, log)

	// 7. Initialize security components and shared infrastructure
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "knowledgehub")
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)
	bus := events.NewBus(log)
	paymentClient := payment.NewClient(cfg.PaymentProviderURL, cfg.PaymentCurrency, log)

	// 8. Initialize services
	entitlementService := service.NewEntitlementService(purchaseRepo, catalogRepo, redisClient, cfg.EntitlementCacheTTL, log)
	purchaseService := service.NewPurchaseService(purchaseRepo, catalogRepo, entitlementService, bus, auditLogger, log)
	validationService := service.NewValidationService(validationRepo, certificationRepo, catalogRepo, entitlementService, bus, auditLogger, log)
	catalogService := service.NewCatalogService(catalogRepo, log)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.TokenLifetime, log)
	checkoutService := service.NewCheckoutService(catalogRepo, paymentClient, log)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	adminHandler := handler.NewAdminHandler(catalogService, log)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, log)
	paymentHandler := handler.NewPaymentHandler(purchaseService, log)
	validationHandler := handler.NewValidationHandler(validationService, log)
	entitlementHandler := handler.NewEntitlementHandler(entitlementService, log)
	accountHandler := handler.NewAccountHandler(purchaseService, validationService, log)
	progressHandler := handler.NewProgressHandler(bus, tokenManager, cfg.CORSAllowedOrigins, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.HandleFunc("GET /api/catalogue", catalogHandler.GetCatalogue)
	mux.HandleFunc("GET /api/themes/{id}", catalogHandler.GetTheme)
	mux.HandleFunc("GET /api/cursuses/{id}", catalogHandler.GetCursus)
	mux.HandleFunc("GET /api/lessons/{id}", catalogHandler.GetLesson)

	mux.Handle("POST /api/admin/themes", middleware.RequireRole("admin", http.HandlerFunc(adminHandler.CreateTheme)))
	mux.Handle("POST /api/admin/cursuses", middleware.RequireRole("admin", http.HandlerFunc(adminHandler.CreateCursus)))
	mux.Handle("POST /api/admin/lessons", middleware.RequireRole("admin", http.HandlerFunc(adminHandler.CreateLesson)))

	mux.HandleFunc("POST /api/checkout/lessons/{id}", checkoutHandler.StartLessonCheckout)
	mux.HandleFunc("POST /api/checkout/cursuses/{id}", checkoutHandler.StartCursusCheckout)
	mux.HandleFunc("POST /api/payments/lessons/{id}/confirm", paymentHandler.ConfirmLesson)
	mux.HandleFunc("POST /api/payments/cursuses/{id}/confirm", paymentHandler.ConfirmCursus)

	mux.HandleFunc("POST /api/lessons/{id}/validate", validationHandler.ValidateLesson)
	mux.HandleFunc("GET /api/lessons/{id}/entitlement", entitlementHandler.CheckLesson)
	mux.HandleFunc("GET /api/me/purchases", accountHandler.ListPurchases)
	mux.HandleFunc("GET /api/me/certifications", accountHandler.ListCertifications)

	mux.Handle("GET /ws/progress", progressHandler)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> JWT -> rate limit -> audit
	// -> CORS. JWT runs before the rate limiter and audit so both see the
	// authenticated user.
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.JWTMiddleware(tokenManager, log)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.AuditMiddleware(auditLogger)(
						middleware.ValidateJSONContentType(log)(handlerWithCORS),
					),
				),
			),
		),
		log,
	)

	// 11. Start backfill reconciler in background
	if featureflags.EnabledDefault(featureflags.BackfillWorker, true) {
		backfillWorker := worker.NewBackfillWorker(
			purchaseRepo,
			catalogRepo,
			entitlementService,
			log,
			time.Duration(cfg.BackfillIntervalMinutes)*time.Minute,
		)
		go backfillWorker.Start(ctx)
	}

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "http.server"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // stop backfill worker
	bus.Close()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
