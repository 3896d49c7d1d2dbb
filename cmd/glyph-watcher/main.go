// Glyph Watcher — демон, распознающий новые изображения в директории.
//
// Watcher:
//   - Следит за WATCH_DIR и обрабатывает файлы по одному
//   - Переносит обработанные файлы в WATCH_ARCHIVE_DIR
//   - Сохраняет outcomes в PostgreSQL, если задан GLYPH_DB_URL
//   - Публикует outcomes и принимает задания через RabbitMQ,
//     если задан GLYPH_RABBITMQ_URL
//
// HTTP: /healthz, /metrics, /api/v1/watch/stats, /api/v1/runs/{id}/outcomes,
// /api/v1/jobs.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Glyph/internal/api"
	"github.com/shaiso/Glyph/internal/cli"
	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/mq"
	"github.com/shaiso/Glyph/internal/orchestrator"
	"github.com/shaiso/Glyph/internal/repo"
	"github.com/shaiso/Glyph/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(telemetry.LogOptions{Format: "json"})
	logger.Info("starting glyph-watcher")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, err := filepath.Abs(envOr("WATCH_DIR", "./inbox"))
	if err != nil {
		logger.Error("invalid watch dir", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		logger.Error("failed to create watch dir", "dir", root, "error", err)
		os.Exit(1)
	}

	// Конфигурация и клиент движка
	session, err := cli.NewSession(cli.GlobalFlags{
		Config:  os.Getenv("GLYPH_CONFIG"),
		Profile: os.Getenv("GLYPH_PROFILE"),
	}, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client, err := session.Client(ctx)
	if err != nil {
		logger.Error("engine is not available", "error", err)
		os.Exit(1)
	}

	runID := uuid.New()
	runLogger := telemetry.WithRunID(logger, runID.String())
	opts := orchestrator.Options{Logger: runLogger, RunID: runID}

	// PostgreSQL (опционально)
	var outcomes api.OutcomeLister
	if os.Getenv("GLYPH_DB_URL") != "" {
		pool, err := repo.NewPool(ctx, repo.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		outcomeRepo := repo.NewOutcomeRepo(pool)
		if err := outcomeRepo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		opts.Sinks = append(opts.Sinks, outcomeRepo)
		outcomes = outcomeRepo
		logger.Info("database connected")
	}

	// RabbitMQ (опционально)
	var (
		jobs   api.JobPublisher
		mqConn *mq.Connection
	)
	if os.Getenv("GLYPH_RABBITMQ_URL") != "" {
		mqConn, err = mq.Dial(mq.URL(), logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running without queue", "error", err)
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}

			publisher := mq.NewPublisher(mqConn, logger)
			opts.Sinks = append(opts.Sinks, publisher)
			jobs = publisher
		}
	}

	batch := session.Config.Batch()
	outputDir := envOr("WATCH_OUTPUT_DIR", batch.OutputDir)

	watcher, err := orchestrator.NewWatcher(orchestrator.WatchConfig{
		Root:       root,
		Recursive:  os.Getenv("WATCH_RECURSIVE") == "true",
		Extensions: splitList(os.Getenv("WATCH_EXTENSIONS")),
		ArchiveDir: os.Getenv("WATCH_ARCHIVE_DIR"),
		Debounce:   envDuration(logger, "WATCH_DEBOUNCE", orchestrator.DefaultDebounce),
		Logger:     runLogger,
		Process: orchestrator.NewProcessor(orchestrator.ProcessorConfig{
			Client:    client,
			Params:    session.Params,
			OutputDir: outputDir,
			Options:   opts,
		}),
	})
	if err != nil {
		logger.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	// Задания из очереди jobs.recognize
	if mqConn != nil {
		jp := &jobProcessor{
			client:    client,
			config:    session.Config,
			params:    session.Params,
			outputDir: outputDir,
			opts:      opts,
			cache:     make(map[string]orchestrator.ProcessFunc),
		}
		consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
			Queue:   mq.QueueJobs,
			Handler: mq.JobHandler(jp.process),
		})
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("job consumer stopped", "error", err)
			}
		}()
	}

	// HTTP: /healthz, /metrics, API
	handler := api.NewHandler(api.Config{
		Watcher:  watcher,
		Outcomes: outcomes,
		Jobs:     jobs,
		Root:     root,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":" + envOr("WATCHER_PORT", "8083")
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Watch-цикл работает до сигнала завершения
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watcher stopped", "error", err)
		cancel()
	}
	logger.Info("shutting down", "stats", watcher.Stats())

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("glyph-watcher stopped")
}

// jobProcessor обрабатывает задания из очереди. Профиль задания
// выбирает параметры распознавания; обработчики кешируются по профилю.
// Вызывается только из горутины Consumer.
type jobProcessor struct {
	client    engine.Client
	config    *config.Config
	params    config.Params
	outputDir string
	opts      orchestrator.Options
	cache     map[string]orchestrator.ProcessFunc
}

func (p *jobProcessor) process(ctx context.Context, job mq.JobPayload) error {
	fn, ok := p.cache[job.Profile]
	if !ok {
		params := p.params
		if job.Profile != "" {
			var err error
			if params, err = p.config.Params(job.Profile); err != nil {
				return err
			}
			if err := params.Validate(); err != nil {
				return err
			}
		}
		fn = orchestrator.NewProcessor(orchestrator.ProcessorConfig{
			Client:    p.client,
			Params:    params,
			OutputDir: p.outputDir,
			Options:   p.opts,
		})
		p.cache[job.Profile] = fn
	}
	return fn(ctx, job.Path)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
