package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qdadoc/docs"
	"qdadoc/internal/cache"
	"qdadoc/internal/config"
	"qdadoc/internal/database"
	"qdadoc/internal/database/migration"
	handlers "qdadoc/internal/http/handler"
	"qdadoc/internal/http/middleware"
	"qdadoc/internal/logging"
	"qdadoc/internal/otel"
	"qdadoc/internal/repository"
	"qdadoc/internal/repository/mysql"
	"qdadoc/internal/repository/postgres"
	"qdadoc/internal/service"
	"qdadoc/internal/storage"
)

// maxBatchFiles sizes the request body limit so a batch upload of this many
// files at the per-file limit still reaches the service.
const maxBatchFiles = 8

// @title Qualitative Document API
// @version 1.0
// @description Upload plain-text documents, view them and select spans of text.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logging.New(os.Stdout, cfg.Location())
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		fatal(log, "tracing_init_failed", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		fatal(log, "db_connect_failed", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Driver, cfg.Database.Host); err != nil {
			fatal(log, "db_migration_failed", err)
		}
	}

	var docRepo repository.DocumentRepository
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		docRepo = postgres.NewDocumentPostgres(db)
	default:
		docRepo = mysql.NewDocumentMySQL(db)
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithMaxUploadBytes(cfg.Upload.MaxBytes),
	}

	if cfg.Redis.Enabled() {
		docCache, err := cache.Dial(ctx, cfg.Redis)
		if err != nil {
			fatal(log, "cache_connect_failed", err)
		}
		defer docCache.Close()
		opts = append(opts, service.WithCache(docCache))
		log.Info("cache_enabled", map[string]any{"component": "cache", "redis_addr": cfg.Redis.Addr})
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			fatal(log, "storage_init_failed", err)
		}
		opts = append(opts, service.WithArchive(objStore), service.WithPresignedDownloads(cfg.MinIO.Presign))
		log.Info("archive_enabled", map[string]any{"component": "storage", "bucket": cfg.MinIO.Bucket, "presign": cfg.MinIO.Presign})
	}

	docSvc := service.NewDocumentService(docRepo, opts...)

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "metrics_init_failed", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxBytes)*maxBatchFiles + 1<<20,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || c.Path() == "/healthz"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		host := c.Get("Host")
		if host == "" {
			host = cfg.AppHost
		}
		docs.SwaggerInfo.Host = host
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	addr := ":" + cfg.Port
	go func() {
		log.Info("server_starting", map[string]any{"component": "http", "addr": addr, "db_driver": cfg.Database.Driver})
		if err := app.Listen(addr); err != nil {
			log.Error("server_failed", err, map[string]any{"component": "http"})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	log.Info("server_stopping", map[string]any{"component": "http"})
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("server_shutdown_failed", err, map[string]any{"component": "http"})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing_shutdown_failed", err, map[string]any{"component": "tracing"})
	}
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(msg, err, map[string]any{"component": "main"})
	os.Exit(1)
}
