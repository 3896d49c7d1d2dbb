package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/mq"
	"github.com/shaiso/Glyph/internal/orchestrator"
)

// StatsSource — источник счётчиков watch-цикла (*orchestrator.Watcher).
type StatsSource interface {
	Stats() orchestrator.WatchStats
}

// OutcomeLister — чтение сохранённых outcomes (*repo.OutcomeRepo).
type OutcomeLister interface {
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.OutcomeRecord, error)
}

// JobPublisher — постановка заданий в очередь (*mq.Publisher).
type JobPublisher interface {
	PublishJob(ctx context.Context, job mq.JobPayload) error
}

// Handler — обработчик HTTP API glyph-watcher.
type Handler struct {
	watcher  StatsSource
	outcomes OutcomeLister
	jobs     JobPublisher
	root     string
	logger   *slog.Logger
}

// Config — конфигурация для создания Handler.
// Outcomes и Jobs необязательны: без них соответствующие endpoints отвечают 503.
type Config struct {
	Watcher  StatsSource
	Outcomes OutcomeLister
	Jobs     JobPublisher
	Root     string // наблюдаемая директория, отображается в stats
	Logger   *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		watcher:  cfg.Watcher,
		outcomes: cfg.Outcomes,
		jobs:     cfg.Jobs,
		root:     cfg.Root,
		logger:   logger,
	}
}
