package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/analyze"
	"github.com/interview-iq/backend/internal/api/handlers"
	"github.com/interview-iq/backend/internal/blob"
	"github.com/interview-iq/backend/internal/extract"
	"github.com/interview-iq/backend/internal/genai"
	"github.com/interview-iq/backend/internal/metrics"
	"github.com/interview-iq/backend/internal/pipeline"
	"github.com/interview-iq/backend/internal/scraper"
	"github.com/interview-iq/backend/internal/storage/sqlite"
	"github.com/interview-iq/backend/pkg/config"
	appLogger "github.com/interview-iq/backend/pkg/logger"
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

	appLogger.Info("Starting InterviewIQ API Server")

	metrics.Init()

	sessionStore, err := sqlite.NewStore(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create session store", zap.Error(err))
	}
	defer sessionStore.Close()

	if err := sessionStore.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	blobStore, err := blob.NewStore(cfg.Blob.RootDir)
	if err != nil {
		appLogger.Fatal("Failed to create blob store", zap.Error(err))
	}

	var executions pipeline.ExecutionStore
	if cfg.Redis.Enabled {
		redisStore, err := pipeline.NewRedisExecutionStore(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			appLogger.Fatal("Failed to create redis execution store", zap.Error(err))
		}
		defer redisStore.Close()
		executions = redisStore
	} else {
		appLogger.Info("Redis disabled, using in-memory execution store")
		executions = pipeline.NewMemoryExecutionStore()
	}

	scrapeClient := scraper.NewClient(scraper.Config{
		Timeout:       time.Duration(cfg.Scraper.TimeoutSec) * time.Second,
		RequestDelay:  time.Duration(cfg.Scraper.RequestDelayMS) * time.Millisecond,
		MaxExtraPages: cfg.Scraper.MaxExtraPages,
		UserAgent:     cfg.Scraper.UserAgent,
	})

	extractor := extract.NewExtractor(extract.NewPDFTextOCR())
	analyzer := analyze.NewAnalyzer(analyze.NewProseBackend(), cfg.Analyzer.MaxChunkBytes)
	generator := genai.NewService(genai.NewClient(cfg.GenAI))

	progressHub := handlers.NewProgressHub()

	orchestrator := pipeline.NewOrchestrator(pipeline.Deps{
		Sessions:   sessionStore,
		Blobs:      blobStore,
		Scraper:    scrapeClient,
		Extractor:  extractor,
		Analyzer:   analyzer,
		Generator:  generator,
		Executions: executions,
		Progress:   progressHub.Publish,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	sessionHandler := handlers.NewSessionHandler(sessionStore)
	stageHandler := handlers.NewStageHandler(orchestrator)
	pipelineHandler := handlers.NewPipelineHandler(orchestrator)
	healthHandler := handlers.NewHealthHandler(cfg)

	api := app.Group("/api/v1")

	api.Post("/sessions", sessionHandler.CreateSession)
	api.Get("/sessions/:sessionId", sessionHandler.GetSession)
	api.Post("/sessions/:sessionId/feedback", sessionHandler.SubmitFeedback)

	api.Post("/sessions/:sessionId/scrape", stageHandler.ScrapeCompany)
	api.Post("/sessions/:sessionId/parse", stageHandler.ParseDocument)
	api.Post("/sessions/:sessionId/analyze", stageHandler.AnalyzeCompany)
	api.Post("/sessions/:sessionId/generate", stageHandler.GenerateBrief)

	api.Post("/pipeline", pipelineHandler.StartPipeline)
	api.Get("/pipeline/:executionId", pipelineHandler.GetPipelineStatus)

	api.Get("/health", healthHandler.Health)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress", websocket.New(progressHub.HandleConnection))

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
