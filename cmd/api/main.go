package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pipelinealfa/crm/config"
	"github.com/pipelinealfa/crm/pkg/analytics"
	"github.com/pipelinealfa/crm/pkg/api/handlers"
	custommw "github.com/pipelinealfa/crm/pkg/api/middleware"
	"github.com/pipelinealfa/crm/pkg/auth"
	"github.com/pipelinealfa/crm/pkg/authgate"
	"github.com/pipelinealfa/crm/pkg/board"
	"github.com/pipelinealfa/crm/pkg/cache"
	"github.com/pipelinealfa/crm/pkg/database"
	"github.com/pipelinealfa/crm/pkg/hotmart"
	"github.com/pipelinealfa/crm/pkg/identity"
	"github.com/pipelinealfa/crm/pkg/jobs"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/metrics"
	custommiddleware "github.com/pipelinealfa/crm/pkg/middleware"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/session"
	"github.com/pipelinealfa/crm/pkg/store"
	"github.com/pipelinealfa/crm/pkg/subscription"
	"github.com/pipelinealfa/crm/pkg/webhook"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 1.0,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis cache
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Stores and schema
	stores := store.New(db.DB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := stores.EnsureSchema(ctx, db.DB); err != nil {
			cancel()
			log.Fatalf("❌ Failed to ensure database schema: %v", err)
		}
		cancel()
	}

	// Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	// Subscription oracle: payment platform first, local table as fallback
	hotmartClient := hotmart.NewClient(cfg.HotmartAPIBaseURL, cfg.HotmartTokenURL, cfg.HotmartClientID, cfg.HotmartClientSecret)
	oracle := subscription.NewOracle(hotmartClient, stores.Subscriptions, appLogger)

	// Identity provider behind the subscription gate
	provider := identity.NewGoTrueClient(cfg.IdentityURL, cfg.IdentityAPIKey)
	gate := authgate.New(provider, oracle, cfg.ResetRedirectURL, appLogger)

	// Token blacklist and per-session subscription watchers. Blacklist
	// entries live as long as the tokens they revoke.
	blacklist := auth.NewTokenBlacklist(redisClient, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	notifier := notify.NewLogNotifier(appLogger)
	sessions := session.NewManager(
		oracle,
		notifier,
		blacklist,
		appLogger,
		time.Duration(cfg.WatcherIntervalMinutes)*time.Minute,
		time.Duration(cfg.WatcherGraceSeconds)*time.Second,
	)
	sessions.OnForcedSignOut = prometheusMetrics.ForcedSignOuts.Inc

	// Per-user boards and analytics
	boards := board.NewRegistry(stores.Leads, stores.Tasks, notifier, appLogger, 30*time.Minute, 5*time.Minute)
	analyticsService := analytics.NewService(redisClient, prometheusMetrics, appLogger)

	// Webhook processing invalidates the oracle's memoized verdicts
	webhookService := webhook.NewService(stores.Subscriptions, oracle, appLogger)

	// Cron jobs: nightly sweep of stale subscription rows, flushing the
	// oracle so memoized verdicts stay in step with the table
	cronManager := jobs.NewCronManager(stores.Subscriptions, oracle, appLogger)
	if err := cronManager.SetupJobs(); err != nil {
		log.Fatalf("❌ Failed to set up cron jobs: %v", err)
	}
	cronManager.Start()
	log.Printf("⏰ Cron jobs: Daily 2AM (expire stale subscriptions)")

	// Handlers
	authHandler := handlers.NewAuthHandler(gate, sessions, prometheusMetrics)
	leadHandler := handlers.NewLeadHandler(boards, analyticsService, prometheusMetrics)
	taskHandler := handlers.NewTaskHandler(boards, analyticsService, prometheusMetrics)
	dashboardHandler := handlers.NewDashboardHandler(boards, analyticsService)
	subscriptionHandler := handlers.NewSubscriptionHandler(oracle, prometheusMetrics)
	webhookHandler := handlers.NewWebhookHandler(webhookService, cfg.WebhookSecret, prometheusMetrics)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Rate limiters
	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)       // 5 req/min for login/register
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20) // 100 req/min for Hotmart webhooks

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			appLogger.Info("request", "method", c.Request().Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Pipeline Alfa API",
			"version":     "0.1.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		if _, err := redisClient.Redis.Ping(ctx).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"cache":  "down",
			})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"cache":    "up",
		})
	})

	// Prometheus metrics endpoint (public)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Public subscription check: the login screen calls this before any
	// credentials exist.
	v1.GET("/subscription/check", subscriptionHandler.Check)
	v1.POST("/subscription/check", subscriptionHandler.Check)

	// Hotmart webhook with its own rate limit
	v1.POST("/webhook/hotmart", webhookHandler.Receive, webhookRateLimiter.RateLimitMiddleware())

	// Auth routes (public, stricter rate limit)
	authGroup := v1.Group("/auth")
	authGroup.Use(authRateLimiter.RateLimitMiddleware())
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
	}

	// Authenticated routes
	jwtMiddleware := custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, blacklist)

	authGroup.POST("/logout", authHandler.Logout, jwtMiddleware)
	authGroup.POST("/update-password", authHandler.UpdatePassword, jwtMiddleware)
	authGroup.GET("/me", authHandler.Me, jwtMiddleware)

	protected := v1.Group("", jwtMiddleware)
	{
		protected.GET("/subscription/status", subscriptionHandler.Status)
		protected.GET("/dashboard", dashboardHandler.Get)

		leadsGroup := protected.Group("/leads")
		{
			leadsGroup.GET("", leadHandler.List)
			leadsGroup.POST("", leadHandler.Create)
			leadsGroup.PUT("/:id", leadHandler.Update)
			leadsGroup.PATCH("/:id/move", leadHandler.Move)
			leadsGroup.POST("/:id/interactions", leadHandler.AddInteraction)
			leadsGroup.GET("/:id/whatsapp", leadHandler.WhatsApp)
			leadsGroup.DELETE("/:id", leadHandler.Delete)
		}

		tasksGroup := protected.Group("/tasks")
		{
			tasksGroup.GET("", taskHandler.List)
			tasksGroup.POST("", taskHandler.Create)
			tasksGroup.PUT("/:id", taskHandler.Update)
			tasksGroup.PATCH("/:id/toggle", taskHandler.Toggle)
			tasksGroup.DELETE("/:id", taskHandler.Delete)
		}
	}

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Pipeline Alfa API starting on %s", address)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d), auth 5/min, webhook 100/min", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("👁  Subscription watcher: every %dm, grace %ds", cfg.WatcherIntervalMinutes, cfg.WatcherGraceSeconds)

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	cronManager.Stop()
	log.Println("✅ Cron jobs stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
