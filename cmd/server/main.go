package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stemsi/examenv-backend/internal/config"
	"github.com/stemsi/examenv-backend/internal/database"
	"github.com/stemsi/examenv-backend/internal/handler"
	"github.com/stemsi/examenv-backend/internal/logger"
	"github.com/stemsi/examenv-backend/internal/metrics"
	"github.com/stemsi/examenv-backend/internal/router"
	"github.com/stemsi/examenv-backend/internal/service"
	"github.com/stemsi/examenv-backend/internal/storage"
	"github.com/stemsi/examenv-backend/internal/tracing"
	"github.com/stemsi/examenv-backend/internal/validator"
	"github.com/stemsi/examenv-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Bool("allow_answer_retraction", cfg.AllowAnswerRetraction).
		Msg("Starting Exam Environment Backend")

	// ─── Initialize Validator & Metrics ───────────────────────────────
	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Tracing ───────────────────────────────────────────────────────
	if cfg.JaegerEndpoint != "" {
		tp, err := tracing.Init(cfg.ServiceName, cfg.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Tracer shutdown error")
			}
		}()
		log.Info().Str("endpoint", cfg.JaegerEndpoint).Msg("Tracing enabled")
	}

	// ─── Initialize Stores ─────────────────────────────────────────────
	var (
		st  *stores
		err error
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		st, err = newMemoryStores(cfg, log)
	case config.StorageDriverPostgres:
		st, err = newPostgresStores(ctx, cfg, log)
	default:
		log.Fatal().Str("storage", cfg.StorageDriver).Msg("Unknown storage driver")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer st.close()

	// ─── Object Storage ────────────────────────────────────────────────
	// A nil store turns the screenshot endpoint off.
	var screenshots storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		client, err := database.NewMinioClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MinIO")
		}
		screenshots = storage.NewMinioStore(client, cfg.MinioBucket)
		st.health["minio"] = handler.PingFunc(func(ctx context.Context) error {
			_, err := client.BucketExists(ctx, cfg.MinioBucket)
			return err
		})
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set, screenshot uploads disabled")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, st.tokens, st.users, log)
	examService := service.NewExamEnvironmentService(
		st.catalog,
		st.generated,
		st.attempts,
		st.users,
		cfg.AllowAnswerRetraction,
		log,
	)
	screenshotService := service.NewScreenshotService(screenshots, cfg.MaxScreenshotBytes, log)

	if st.devUser != nil {
		token, err := authService.IssueToken(ctx, st.devUser.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to issue development token")
		}
		log.Info().
			Str("user_id", st.devUser.ID.String()).
			Str("token", token).
			Msg("Development token issued")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		ExamEnvironment: handler.NewExamEnvironmentHandler(examService, authService),
		Screenshot:      handler.NewScreenshotHandler(screenshotService),
		Health:          handler.NewHealthHandler(st.health, log),
	}

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every active exam into Redis BEFORE accepting traffic.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if st.cache != nil {
		if err := st.cache.Prewarm(ctx); err != nil {
			log.Warn().Err(err).Msg("Cache prewarm failed")
		}
		if cfg.CatalogRefreshInterval > 0 {
			go worker.NewCatalogRefreshWorker(st.cache, cfg.CatalogRefreshInterval, log).Start(workerCtx)
		}
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()

	log.Info().Msg("Server exited cleanly")
}
