package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"mockai/internal/cache"
	"mockai/internal/config"
	"mockai/internal/database"
	"mockai/internal/handler"
	"mockai/internal/logger"
	"mockai/internal/orchestrator"
	"mockai/internal/question"
	"mockai/internal/queue"
	"mockai/internal/repository"
	"mockai/internal/router"
	"mockai/internal/service"
	"mockai/internal/speech"
	"mockai/internal/storage"
	"mockai/internal/transcode"
	"mockai/internal/transcription"
	"mockai/internal/validator"
	"mockai/pkg/auth"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	log.Info("Configuration loaded")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	validator.RegisterCustomValidators()
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	mongoDB, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	if err != nil {
		return err
	}
	defer mongoDB.Close()

	if names, err := repository.EnsureIndexes(ctx, mongoDB.Database); err != nil {
		log.WithError(err).Warn("Failed to ensure indexes")
	} else {
		log.WithField("indexes", names).Debug("Indexes ensured")
	}

	// Redis Cache
	redisCache, err := cache.NewRedis(ctx, cfg.RedisURI, log)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	resultCache := cache.NewResultStore(redisCache, cfg.ResultCacheTTL)
	retryStore := cache.NewRetryStore(redisCache, cfg.RetryTTL)

	// Object storage
	store, closeStore, err := storage.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Google AI
	var googleOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	var (
		generator   question.Generator    = question.StaticGenerator{}
		transcriber transcription.Service = transcription.NewMockService()
		recognizer  speech.Recognizer     = speech.NopRecognizer{}
	)
	if cfg.GoogleProjectID != "" {
		client, err := genai.NewClient(ctx, cfg.GoogleProjectID, cfg.GoogleLocation, googleOpts...)
		if err != nil {
			return fmt.Errorf("failed to create Vertex AI client: %w", err)
		}
		defer client.Close()
		generator = question.NewGeminiGenerator(client, cfg.GeminiModel)
		transcriber = transcription.NewGeminiService(client, cfg.GeminiModel, log)
		log.WithField("model", cfg.GeminiModel).Info("Using Gemini for questions and analysis")
	} else {
		log.Warn("GOOGLE_PROJECT_ID not set, using canned questions and mock analysis")
	}
	if cfg.SpeechEnabled {
		google, err := speech.NewGoogleRecognizer(ctx, cfg.SpeechLanguage, log, googleOpts...)
		if err != nil {
			return err
		}
		defer google.Close()
		recognizer = google
	}

	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.AccessTokenSecret, cfg.AccessTokenExpiry)

	// Repository layer
	questionRepo := repository.NewQuestionRepository(mongoDB.Database)
	resultRepo := repository.NewResultRepository(mongoDB.Database)

	// Pipeline, analysis queue and processor
	pipeline := orchestrator.NewPipeline(orchestrator.PipelineDeps{
		Extractor:       transcode.NewFFmpeg(cfg.FFmpegPath, log),
		Storage:         store,
		Transcriber:     transcriber,
		Results:         resultRepo,
		SignedURLExpiry: cfg.SignedURLExpiry,
		Logger:          log,
	})
	analysisQueue := queue.NewMemoryQueue(cfg.AnalysisQueueSize)
	processor := queue.NewProcessor(queue.ProcessorDeps{
		Queue:       analysisQueue,
		Runner:      pipeline,
		Failures:    resultRepo,
		Retries:     retryStore,
		ResultCache: resultCache,
		Workers:     cfg.AnalysisWorkers,
		Logger:      log,
	})

	// Service layer
	interviewService := service.NewInterviewService(generator, questionRepo, resultRepo, resultCache, store, cfg.SignedURLExpiry, log)
	recordingService := service.NewRecordingService(questionRepo, resultRepo, analysisQueue, retryStore, resultCache, log)
	sessionService := service.NewSessionService(questionRepo, resultCache, service.SessionConfig{
		Recognizer:   recognizer,
		Pipeline:     pipeline,
		WarningAfter: cfg.RecordingWarningAfter,
		MaxDuration:  cfg.RecordingMaxDuration,
		TempDir:      os.TempDir(),
	}, log)

	// Router
	r := router.Setup(&router.Config{
		InterviewHandler: handler.NewInterviewHandler(interviewService),
		RecordingHandler: handler.NewRecordingHandler(recordingService),
		SessionHandler:   handler.NewSessionHandler(sessionService, log),
		HealthHandler: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"mongo": mongoDB.Ping,
			"redis": redisCache.Ping,
		}),
		TokenManager: jwtManager,
		Logger:       log,
	})

	processor.Start(ctx)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	case err := <-serveErr:
		processor.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Drain HTTP first so no new analyses are queued.
	log.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown error")
	}

	log.Info("Stopping analysis processor")
	processor.Stop()
	cancel()

	log.Info("Server shutdown complete")
	return nil
}
