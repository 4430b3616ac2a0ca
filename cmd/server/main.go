package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/flags"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/listings"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/providers"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/review"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/risk"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/trustsafety-backend/internal/verification"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	// Storage
	var (
		db          *gorm.DB
		dbLog       *logging.DBHandler
		flagRepo    flags.Repository    = flags.NewMemoryRepository()
		listingRepo listings.Repository = listings.NewMemoryRepository()
	)
	cleanupDone := make(chan struct{})
	if cfg.UsesDatabase() {
		var err error
		db, err = database.Connect(cfg)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}

		// ERROR+ records also go to system_logs
		dbLog = logging.NewDBHandler(db, 5*time.Second)
		slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLog)))

		// Log cleanup (30-day retention)
		logging.StartCleanup(db, cleanupDone)

		flagRepo = flags.NewGormRepository(db)
		listingRepo = listings.NewGormRepository(db)
	}
	slog.Info("storage ready", "driver", cfg.StorageDriver)

	// Flag store
	publisher := newPublisher(cfg)
	store := flags.NewStore(flagRepo, flags.NewEnricher(newSummarizers(cfg)...), publisher)

	// Scoring providers
	brands, err := loadBrands(cfg.BrandReferencesPath)
	if err != nil {
		slog.Error("failed to load brand references", "path", cfg.BrandReferencesPath, "error", err)
		os.Exit(1)
	}

	engineCfg := risk.EngineConfig{
		Brands:              brands,
		Flags:               store,
		Timeout:             cfg.InferenceTimeout,
		ImageWidth:          cfg.ImageWidth,
		ImageHeight:         cfg.ImageHeight,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}
	reviewCfg := review.Config{Flags: store, Timeout: cfg.InferenceTimeout}
	var inspector providers.Inspector
	if cfg.InferenceURL != "" {
		client := providers.NewInferenceClient(cfg.InferenceURL, cfg.InferenceTimeout)
		engineCfg.Visual, engineCfg.Text, engineCfg.Features = client, client, client
		reviewCfg.Sentiment, reviewCfg.Images, reviewCfg.Relevance = client, client, client
		inspector = client
		slog.Info("inference providers enabled", "url", cfg.InferenceURL)
	} else {
		slog.Warn("INFERENCE_URL not set, scoring runs on heuristics only")
	}

	engine := risk.NewEngine(engineCfg)
	scorer := review.NewScorer(reviewCfg)
	verifier := verification.NewVerifier(verification.DefaultCatalog(), inspector, store, cfg.InferenceTimeout)
	listingService := listings.NewService(listingRepo, engine)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, routes.Handlers{
		Health:       handlers.NewHealthHandler(db, cfg.StorageDriver),
		Listings:     handlers.NewListingHandler(listingService),
		Monitor:      handlers.NewMonitorHandler(engine),
		Reviews:      handlers.NewReviewHandler(scorer),
		Verification: handlers.NewVerificationHandler(verifier),
		Flags:        handlers.NewFlagHandler(store),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		slog.Error("flag publisher close error", "error", err)
	}
	close(cleanupDone)
	if dbLog != nil {
		dbLog.Stop()
	}
	sentry.Flush(2 * time.Second)

	// Close database connections
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("database close error", "error", err)
			}
		}
	}

	slog.Info("server stopped")
}

func newPublisher(cfg *config.Config) flags.Publisher {
	switch cfg.FlagEvents {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		p, err := flags.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.FlagEventsChannel)
		if err != nil {
			slog.Error("redis flag events disabled", "addr", cfg.RedisAddr, "error", err)
			return flags.NoopPublisher{}
		}
		slog.Info("flag events to redis", "channel", cfg.FlagEventsChannel)
		return p
	case "kafka":
		slog.Info("flag events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.FlagEventsTopic)
		return flags.NewKafkaPublisher(cfg.KafkaBrokers, cfg.FlagEventsTopic)
	default:
		return flags.NoopPublisher{}
	}
}

// newSummarizers returns the configured summarizers in fallback order.
func newSummarizers(cfg *config.Config) []flags.Summarizer {
	var out []flags.Summarizer
	if len(cfg.GroqAPIKeys) > 0 {
		out = append(out, flags.NewChatSummarizer(cfg.GroqAPIURL, cfg.GroqAPIKeys, cfg.GroqModels, cfg.AITimeout))
	}
	if cfg.GeminiAPIKey != "" {
		g, err := flags.NewGeminiSummarizer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
		if err != nil {
			slog.Error("gemini summarizer disabled", "error", err)
		} else {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		slog.Warn("no AI summarizer configured, flag reports use templates")
	}
	return out
}

func loadBrands(path string) (*providers.BrandReferences, error) {
	if path == "" {
		return nil, nil
	}
	return providers.LoadBrandReferences(path)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
