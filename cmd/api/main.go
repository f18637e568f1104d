package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/config"
	"igvalue/ig-value-estimator/internal/handlers"
	"igvalue/ig-value-estimator/internal/logger"
	"igvalue/ig-value-estimator/internal/repositories"
	"igvalue/ig-value-estimator/internal/review"
	"igvalue/ig-value-estimator/internal/services"
	"igvalue/ig-value-estimator/internal/valuation"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if !cfg.EnvFileLoaded {
		log.Info("No .env file found, using environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	log.Info("Config loaded successfully", zap.Any("config", cfg.Summary()))

	valuationCfg, err := config.LoadValuation(cfg.Valuation.ConfigPath)
	if err != nil {
		log.Fatal("Failed to load valuation config", zap.Error(err))
	}

	// Initialize database
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	uploadRepo := repositories.NewUploadRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Info("Repositories initialized successfully")

	storageService := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.MaxFileSize)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatal("Failed to create upload directory", zap.Error(err))
	}

	providers, gemini := buildProviders(cfg, log)
	sink := buildSink(cfg, log)
	retriever := buildRetriever(cfg, gemini, log)

	pipeline := services.NewPipeline(
		valuation.NewEngine(valuationCfg),
		review.NewSynthesizer(cfg.Valuation.ReviewMaxRunes, log),
		log,
	)

	analyzer := services.NewAnalyzerService(
		analysisRepo,
		uploadRepo,
		pipeline,
		providers,
		services.NewImageProcessor(cfg.Image.MaxSide, cfg.Image.Quality, log),
		retriever,
		sink,
		services.AnalyzerOptions{
			Timeout:      cfg.AI.Timeout,
			MaxRetries:   cfg.AI.MaxRetries,
			Temperature:  cfg.AI.Temperature,
			MaxTokens:    cfg.AI.MaxTokens,
			MaxPosts:     cfg.Image.MaxPosts,
			ImageWorkers: cfg.Image.Workers,
		},
		log,
	)
	log.Info("Analyzer service initialized", zap.Int("providers", len(providers)))

	worker := services.NewWorker(
		analysisRepo,
		analyzer,
		cfg.Worker.Concurrency,
		cfg.Worker.QueueSize,
		cfg.Worker.PollInterval,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(uploadRepo, storageService, cfg.Storage.MaxFileSize, cfg.Image.MaxPosts, log)
	analyzeHandler := handlers.NewAnalyzeHandler(analysisRepo, uploadRepo, analyzer, worker, cfg.Image.MaxPosts)
	resultHandler := handlers.NewResultHandler(analysisRepo)
	debugHandler := handlers.NewDebugHandler(sink, cfg.Summary())

	// Multipart bodies carry the profile screenshot plus every post image.
	bodyLimit := int(cfg.Storage.MaxFileSize) * (cfg.Image.MaxPosts + 1)

	app := fiber.New(fiber.Config{
		AppName:      "IG Value Estimator API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    bodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/analyze", analyzeHandler.HandleAnalyze)
	api.Post("/analyze/text", analyzeHandler.HandleAnalyzeText)
	api.Get("/result/:id", resultHandler.HandleGetResult)
	api.Get("/profiles/:username", resultHandler.HandleGetProfile)
	api.Get("/debug/last_ai", debugHandler.HandleLastAI)
	api.Get("/debug/config", debugHandler.HandleConfig)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "IG Value Estimator API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/analyze",
				"POST /api/v1/analyze/text",
				"GET /api/v1/result/:id",
				"GET /api/v1/profiles/:username",
				"GET /api/v1/debug/last_ai",
				"GET /api/v1/debug/config",
				"GET /metrics",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
		}
		worker.Stop()
		cancel()
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

// buildProviders returns the configured providers in call order. The Gemini
// client is also returned for embeddings; it is nil when Gemini is unused.
func buildProviders(cfg *config.Config, log *zap.Logger) ([]services.VisionProvider, services.GeminiService) {
	var (
		providers []services.VisionProvider
		gemini    services.GeminiService
	)

	for _, name := range []string{cfg.AI.Provider, cfg.AI.Fallback} {
		switch name {
		case config.ProviderGemini:
			svc, err := services.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, log)
			if err != nil {
				log.Error("Failed to initialize Gemini, skipping provider", zap.Error(err))
				continue
			}
			gemini = svc
			providers = append(providers, svc)
		case config.ProviderOpenAI:
			providers = append(providers, services.NewOpenAIProvider(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel, log))
		}
	}

	if len(providers) == 0 {
		log.Warn("No model provider available, every analysis will use the disabled response")
	}
	if gemini == nil && cfg.AI.GeminiAPIKey != "" && cfg.Qdrant.URL != "" {
		svc, err := services.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, log)
		if err != nil {
			log.Warn("Failed to initialize Gemini embeddings", zap.Error(err))
		} else {
			gemini = svc
		}
	}
	return providers, gemini
}

func buildSink(cfg *config.Config, log *zap.Logger) services.ResponseSink {
	if cfg.Redis.Host == "" {
		return services.NewMemorySink()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, keeping model responses in memory", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		_ = client.Close()
		return services.NewMemorySink()
	}

	log.Info("Redis response sink enabled", zap.String("addr", cfg.RedisAddr()))
	return services.NewRedisSink(client, cfg.Redis.TTL)
}

// buildRetriever returns nil when reference grounding is not configured or
// the collection cannot be prepared.
func buildRetriever(cfg *config.Config, embedder services.Embedder, log *zap.Logger) services.ReferenceRetriever {
	if cfg.Qdrant.URL == "" {
		return nil
	}
	if embedder == nil {
		log.Warn("QDRANT_URL set but no Gemini key for embeddings, reference grounding disabled")
		return nil
	}

	store, err := services.NewReferenceStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		log.Warn("Failed to initialize Qdrant, reference grounding disabled", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.InitCollection(ctx); err != nil {
		log.Warn("Failed to initialize Qdrant collection, reference grounding disabled", zap.Error(err))
		return nil
	}

	log.Info("Reference grounding enabled", zap.String("collection", cfg.Qdrant.Collection))
	return services.NewReferenceRetriever(embedder, store, cfg.Qdrant.Limit)
}
