package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// Batch обрабатывает файлы строго последовательно через один engine.Client.
type Batch struct {
	client       engine.Client
	opts         Options
	abortOnError bool
}

// NewBatch создаёт Batch. По умолчанию ошибка файла не прерывает запуск.
func NewBatch(client engine.Client, opts Options) *Batch {
	return &Batch{client: client, opts: opts.withDefaults()}
}

// AbortOnError включает режим continue_on_error = false: после первой ошибки
// оставшиеся файлы помечаются ErrBatchAborted без вызова движка.
func (b *Batch) AbortOnError(abort bool) *Batch {
	b.abortOnError = abort
	return b
}

// RunID возвращает идентификатор запуска.
func (b *Batch) RunID() uuid.UUID {
	return b.opts.RunID
}

// Run обрабатывает files по порядку.
// Результат всегда той же длины, outcomes[i] соответствует files[i].
func (b *Batch) Run(ctx context.Context, files []string, params config.Params) []domain.BatchItemOutcome {
	started := time.Now()
	logger := telemetry.WithRunID(b.opts.Logger, b.opts.RunID.String())
	outcomes := make([]domain.BatchItemOutcome, len(files))

	var aborted error
	for i, file := range files {
		b.opts.Observer.OnProgress(Progress{Index: i + 1, Total: len(files), File: file})

		switch {
		case aborted != nil:
			outcomes[i] = domain.Failed(file, aborted)
		default:
			regions, err := b.client.Invoke(ctx, params.Request(file))
			if err != nil {
				logger.Warn("file failed", "file", file, "error", err)
				outcomes[i] = domain.Failed(file, err)
				if b.abortOnError {
					aborted = fmt.Errorf("%w: %s", ErrBatchAborted, file)
				}
			} else {
				outcomes[i] = domain.Succeeded(file, regions)
			}
		}

		telemetry.CountItem(string(domain.ModeBatch), outcomes[i].Success)
		record(ctx, b.opts, domain.ModeBatch, i, outcomes[i])
	}

	b.opts.Observer.OnComplete(domain.Summarize(outcomes, time.Since(started)))
	return outcomes
}
