package orchestrator

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// Result — результат обработки одного элемента в Map.
type Result[R any] struct {
	Value R
	Err   error
}

// DoneFunc вызывается после каждого завершённого элемента:
// index — позиция элемента во входе, done — сколько завершено, total — сколько всего.
type DoneFunc func(index, done, total int)

// DefaultWorkers возвращает число воркеров по умолчанию — число CPU.
// Верхней границы нет.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Map применяет fn к каждому элементу items на пуле из workers горутин.
//
// out[i] всегда соответствует items[i], независимо от порядка завершения.
// Каждый воркер пишет только в свой слот. onDone сериализуется мьютексом.
// Отмены нет: ctx только передаётся в fn, каждый отправленный элемент
// обрабатывается до конца.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error), onDone DoneFunc) []Result[R] {
	out := make([]Result[R], len(items))
	if len(items) == 0 {
		return out
	}

	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > len(items) {
		workers = len(items)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done atomic.Int64
	)

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				value, err := fn(ctx, items[i])
				out[i] = Result[R]{Value: value, Err: err}

				mu.Lock()
				n := done.Add(1)
				if onDone != nil {
					onDone(i, int(n), len(items))
				}
				mu.Unlock()
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// Parallel обрабатывает файлы пулом воркеров через один engine.Client.
type Parallel struct {
	client  engine.Client
	opts    Options
	workers int
}

// NewParallel создаёт Parallel. workers <= 0 — DefaultWorkers().
func NewParallel(client engine.Client, workers int, opts Options) *Parallel {
	return &Parallel{client: client, opts: opts.withDefaults(), workers: workers}
}

// RunID возвращает идентификатор запуска.
func (p *Parallel) RunID() uuid.UUID {
	return p.opts.RunID
}

// Run обрабатывает files параллельно. Порядок outcomes совпадает с files.
func (p *Parallel) Run(ctx context.Context, files []string, params config.Params) []domain.BatchItemOutcome {
	started := time.Now()
	logger := telemetry.WithRunID(p.opts.Logger, p.opts.RunID.String())

	results := Map(ctx, files, p.workers,
		func(ctx context.Context, file string) ([]domain.Region, error) {
			return p.client.Invoke(ctx, params.Request(file))
		},
		func(index, done, total int) {
			p.opts.Observer.OnProgress(Progress{Index: done, Total: total, File: files[index]})
		},
	)

	outcomes := make([]domain.BatchItemOutcome, len(files))
	for i, r := range results {
		if r.Err != nil {
			logger.Warn("file failed", "file", files[i], "error", r.Err)
			outcomes[i] = domain.Failed(files[i], r.Err)
		} else {
			outcomes[i] = domain.Succeeded(files[i], r.Value)
		}
		telemetry.CountItem(string(domain.ModeParallel), outcomes[i].Success)
		record(ctx, p.opts, domain.ModeParallel, i, outcomes[i])
	}

	p.opts.Observer.OnComplete(domain.Summarize(outcomes, time.Since(started)))
	return outcomes
}
