package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/client"
	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/downloader"
	"github.com/reelworthy/api/internal/handler"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/logging"
	"github.com/reelworthy/api/internal/media"
	"github.com/reelworthy/api/internal/service"
	"github.com/reelworthy/api/internal/worker"
	ws "github.com/reelworthy/api/internal/websocket"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.Init(cfg.Server.LogLevel, cfg.Server.Env)
	mainLog := logging.WithComponent("server")

	for _, dir := range []string{cfg.Media.UploadDir, cfg.Media.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			mainLog.Fatal().Err(err).Str("dir", dir).Msg("failed to create media directory")
		}
	}

	validate := validator.New()

	hub := ws.NewHub()
	go hub.Run()

	tracker := jobs.NewTracker()
	caps := buildCapabilities(cfg, mainLog)
	jobWorker := worker.New(tracker, hub, caps, cfg)
	jobService := service.NewJobService(tracker, jobWorker, caps.Storage, cfg)
	jobHandler := handler.NewJobHandler(jobService, validate, cfg.Media.MaxUploadMB)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    cfg.Media.MaxUploadMB * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"capabilities": fiber.Map{
				"transcriber": caps.Transcriber != nil,
				"audioEvents": caps.AudioEvents != nil,
				"sentiment":   caps.Sentiment != nil,
				"storage":     caps.Storage != nil,
			},
		})
	})

	// API routes
	api := app.Group("/api")
	jobsGroup := api.Group("/jobs")
	jobsGroup.Post("/upload", jobHandler.Upload)
	jobsGroup.Post("/link", jobHandler.Link)
	jobsGroup.Get("/:jobId", jobHandler.Status)
	jobsGroup.Delete("/:jobId", jobHandler.Cleanup)

	// Clip downloads
	app.Get("/download/:jobId/:filename", jobHandler.Download)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		mainLog.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			mainLog.Error().Err(err).Msg("server shutdown error")
		}
	}()

	addr := ":" + cfg.Server.Port
	mainLog.Info().Str("addr", addr).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		mainLog.Fatal().Err(err).Msg("server error")
	}
}

// buildCapabilities wires every external tool the pipeline can use.
// Optional collaborators stay nil when unconfigured and the pipeline
// degrades to the remaining signals.
func buildCapabilities(cfg *config.Config, log zerolog.Logger) worker.Capabilities {
	caps := worker.Capabilities{
		Media:   media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath),
		Fetcher: downloader.NewYTDLP(cfg.Media.YTDLPPath),
	}

	whisper := media.NewWhisper(cfg.Whisper.Bin, cfg.Whisper.Model)
	if whisper.Configured() {
		caps.Transcriber = whisper
	} else {
		log.Info().Msg("whisper not configured, transcript signals disabled")
	}

	if audio := client.NewAudioEventClient(&cfg.Inference); audio.IsConfigured() {
		caps.AudioEvents = audio
	} else {
		log.Info().Msg("audio event inference not configured")
	}

	if sentiment := client.NewSentimentClient(&cfg.Inference); sentiment.IsConfigured() {
		caps.Sentiment = sentiment
	} else {
		log.Info().Msg("sentiment inference not configured")
	}

	if cfg.R2.AccountID != "" {
		storage, err := client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Warn().Err(err).Msg("R2 storage unavailable, serving clips from local disk")
		} else {
			caps.Storage = storage
		}
	}

	return caps
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
