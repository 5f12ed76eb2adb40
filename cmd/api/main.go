package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/api/handlers"
	"github.com/signal-desk/backend/internal/cache/redis"
	"github.com/signal-desk/backend/internal/cleanup"
	"github.com/signal-desk/backend/internal/enrichment"
	"github.com/signal-desk/backend/internal/feed"
	"github.com/signal-desk/backend/internal/llm"
	"github.com/signal-desk/backend/internal/metrics"
	"github.com/signal-desk/backend/internal/middleware/ratelimit"
	"github.com/signal-desk/backend/internal/middleware/security"
	"github.com/signal-desk/backend/internal/registry"
	"github.com/signal-desk/backend/internal/storage/sqlite"
	"github.com/signal-desk/backend/pkg/config"
	appLogger "github.com/signal-desk/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Signal Desk API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Prediction cache is optional; an empty redis host disables it.
	var predictionCache *redis.Client
	if cfg.Redis.Host != "" {
		predictionCache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Prediction cache unavailable, continuing without it", zap.Error(err))
			predictionCache = nil
		} else {
			defer predictionCache.Close()
		}
	}

	// Enrichment is silently disabled without a provider credential.
	var completer enrichment.Completer
	if cfg.LLM.APIKey != "" {
		completer = llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.TimeoutSec)
	} else {
		appLogger.Warn("No LLM API key configured, end-client enrichment disabled")
	}

	var enrichCache enrichment.PredictionCache
	var feedCache feed.PredictionCache
	if predictionCache != nil {
		enrichCache = predictionCache
		feedCache = predictionCache
	}

	enrichEngine := enrichment.NewEngine(completer, enrichCache, enrichment.Config{
		StaffingFirm: cfg.Enrichment.StaffingFirm,
		BatchSize:    cfg.Enrichment.BatchSize,
		CacheTTL:     time.Duration(cfg.Redis.TTLMin) * time.Minute,
	})

	rules := cleanup.DefaultRules(cleanup.DefaultRuleConfig(cfg.Cleanup.TrustedSource))
	pipeline := cleanup.NewPipeline(sqliteClient, rules, cfg.Cleanup.ChunkSize)

	reconciler := registry.NewReconciler(sqliteClient, registry.DefaultExclusions(), registry.DefaultCanonicalFirms())

	assembler := feed.NewAssembler(sqliteClient, feedCache)

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 30,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	signalsHandler := handlers.NewSignalsHandler(assembler, sqliteClient)
	cleanupHandler := handlers.NewCleanupHandler(pipeline, reconciler)
	enrichmentHandler := handlers.NewEnrichmentHandler(enrichEngine, sqliteClient)

	app.Get("/signals", signalsHandler.GetSignals)
	app.Patch("/signals", limiter.Middleware(), signalsHandler.PatchSignal)

	app.Get("/cleanup-academic-signals", limiter.Middleware(), cleanupHandler.CleanupSignals)
	app.Post("/cleanup-academic-signals", limiter.Middleware(), cleanupHandler.CleanupSignals)
	app.Post("/cleanup-competitor-firms", limiter.Middleware(), cleanupHandler.CleanupCompetitorFirms)
	app.Post("/enrich-signals", limiter.Middleware(), enrichmentHandler.EnrichSignals)

	app.Get("/metrics", metrics.MetricsHandler())
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
