package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/domain"
)

// Sink принимает outcome каждого обработанного файла.
type Sink interface {
	Record(ctx context.Context, rec domain.OutcomeRecord) error
}

// SinkFunc — адаптер функции к Sink.
type SinkFunc func(ctx context.Context, rec domain.OutcomeRecord) error

// Record вызывает f.
func (f SinkFunc) Record(ctx context.Context, rec domain.OutcomeRecord) error {
	return f(ctx, rec)
}

// Options — общие параметры оркестраторов.
type Options struct {
	Observer Observer     // default: NopObserver
	Sinks    []Sink       // получатели outcomes
	Logger   *slog.Logger // default: slog.Default()
	RunID    uuid.UUID    // default: uuid.New()
}

func (o Options) withDefaults() Options {
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.RunID == uuid.Nil {
		o.RunID = uuid.New()
	}
	return o
}

// record отправляет outcome во все sinks. Ошибки только логируются.
func record(ctx context.Context, opts Options, mode domain.Mode, index int, outcome domain.BatchItemOutcome) {
	if len(opts.Sinks) == 0 {
		return
	}
	rec := domain.NewOutcomeRecord(opts.RunID, mode, index, outcome)
	for _, sink := range opts.Sinks {
		if err := sink.Record(ctx, rec); err != nil {
			opts.Logger.Warn("failed to record outcome",
				"file", outcome.File,
				"run_id", opts.RunID,
				"error", err,
			)
		}
	}
}
