package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"busline/api/routes"
	"busline/internal/bookings"
	"busline/internal/notifications"
	"busline/internal/realtime"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/middleware"
	"busline/internal/shared/validation"
	"busline/pkg/logger"
	"busline/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Smart environment loading
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.SetDefault(logger.NewWithWriter(os.Stdout, cfg.LogLevel))
	appLogger := logger.GetDefault()

	if envErr != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	if err := cfg.Validate(); err != nil {
		appLogger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)
	validation.Register()

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// notification transport; a broker that cannot be reached falls back to the log
	publisher, err := notifications.NewPublisher(cfg.Messaging)
	if err != nil {
		appLogger.Error("Failed to initialize notification transport, falling back to log",
			slog.String("transport", cfg.Messaging.Transport), slog.Any("error", err))
		publisher = notifications.NewLogPublisher()
	}
	notifier := notifications.NewService(publisher, cfg.Messaging.PublishTimeout)
	defer func() {
		if err := notifier.Close(); err != nil {
			appLogger.Error("Error closing notification transport", slog.Any("error", err))
		}
	}()

	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub()
		go hub.Run(rootCtx)
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		store := ratelimit.NewStore(cfg.RateLimit, db.Redis)
		rateLimiter = ratelimit.NewRateLimiter(store, cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.String("store", fmt.Sprintf("%T", store)),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	appRouter := routes.NewRouter(cfg, db, notifier, hub)
	router := setupRouter(cfg, appRouter, rateLimiter)

	var scheduler *bookings.ExpiryScheduler
	if cfg.Expiry.Enabled {
		scheduler = bookings.NewExpiryScheduler(appRouter.BookingService(), cfg.Expiry.SweepInterval, cfg.Expiry.Timeout)
		scheduler.Start(rootCtx)
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.Bool("redis", db.Redis != nil),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("realtime", hub != nil),
			slog.String("notify_transport", cfg.Messaging.Transport),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	stop()

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter) *gin.Engine {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(middleware.RequestLogger(appLogger), gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Signature", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.Realtime.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Realtime.AllowedOrigins
	} else {
		corsConfig.AllowOriginFunc = func(origin string) bool { return true }
	}
	engine.Use(cors.New(corsConfig))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter.SetupRoutes(engine)
	return engine
}
