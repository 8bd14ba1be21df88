package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"openshelf/docs"
	"openshelf/internal/auth"
	"openshelf/internal/cache"
	"openshelf/internal/config"
	"openshelf/internal/database"
	"openshelf/internal/database/migration"
	handlers "openshelf/internal/http/handler"
	"openshelf/internal/http/middleware"
	"openshelf/internal/logger"
	"openshelf/internal/otel"
	"openshelf/internal/payment"
	"openshelf/internal/repository/postgres"
	"openshelf/internal/service"
	"openshelf/internal/storage"
)

const (
	bodyLimit       = 64 << 20
	shutdownTimeout = 10 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.Location())

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	objStore, err := storage.NewMinIO(ctx, cfg.S3)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	docCache, closeCache, err := newCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	if !payment.Configured(cfg.Payment.KeyID, cfg.Payment.KeySecret) {
		log.Warn("payment gateway keys not configured; order creation will fail")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; signup and login will fail")
	}

	docRepo := postgres.NewDocumentPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	docSvc := service.NewDocumentService(objStore, docRepo, docCache, cfg.Cache.TTL, logger.Component(log, "documents"))
	paySvc := service.NewPaymentService(docRepo, payment.NewRazorpay(cfg.Payment.KeyID, cfg.Payment.KeySecret), cfg.Payment, logger.Component(log, "payment"))
	authSvc := service.NewAuthService(userRepo, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer, "/metrics")
	if err != nil {
		return fmt.Errorf("init http metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    bodyLimit,
	})

	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(metrics.Handler())

	handlers.RegisterRoutes(app, handlers.Deps{
		BasePath:  cfg.BasePath,
		DB:        db,
		Gatherer:  prometheus.DefaultGatherer,
		Documents: docSvc,
		Payments:  paySvc,
		Auth:      authSvc,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}
		docs.SwaggerInfo.BasePath = cfg.BasePath

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// newCache selects the cache backend. Without Redis the service runs uncached
// unless the bounded in-process LRU is requested with CACHE_BACKEND=memory.
func newCache(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (cache.Cache, func(), error) {
	cacheLog := logger.Component(log, "cache")
	noClose := func() {}

	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		cacheLog.Info("caching disabled")
		return cache.Nop{}, noClose, nil
	case config.CacheBackendMemory:
		cacheLog.Info("using in-memory cache", slog.Int("size", cfg.Cache.MemorySize))
		return cache.NewMemory(cfg.Cache.MemorySize, cfg.Cache.TTL), noClose, nil
	case config.CacheBackendRedis:
		if !cfg.Redis.Enabled() {
			return nil, nil, errors.New("CACHE_BACKEND=redis requires REDIS_URL or REDIS_HOST")
		}
	case config.CacheBackendAuto:
		if !cfg.Redis.Enabled() {
			cacheLog.Info("redis not configured, caching disabled")
			return cache.Nop{}, noClose, nil
		}
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.Cache.Backend)
	}

	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis: %w", err)
	}
	rc := cache.NewRedis(ctx, client, cacheLog)
	return rc, func() {
		if err := rc.Close(); err != nil {
			cacheLog.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}, nil
}
