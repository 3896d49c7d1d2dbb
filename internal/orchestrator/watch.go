package orchestrator

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/telemetry"
)

// Значения по умолчанию для Watcher.
const (
	DefaultDebounce  = 500 * time.Millisecond
	DefaultQueueSize = 100
)

// DefaultExtensions — расширения изображений, которые обрабатывает Watcher.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "bmp", "tiff"}

// ProcessFunc обрабатывает один файл.
type ProcessFunc func(ctx context.Context, path string) error

// WatchConfig — конфигурация Watcher.
type WatchConfig struct {
	Root       string
	Recursive  bool
	Extensions []string      // без точки, регистр не важен; default: DefaultExtensions
	ArchiveDir string        // если задан, успешно обработанные файлы переносятся сюда
	Debounce   time.Duration // default: DefaultDebounce
	QueueSize  int           // default: DefaultQueueSize
	Process    ProcessFunc
	Logger     *slog.Logger
}

// WatchStats — счётчики Watcher.
type WatchStats struct {
	Seen      int64 `json:"seen"`
	Dropped   int64 `json:"dropped"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Archived  int64 `json:"archived"`
}

// Watcher следит за директорией и обрабатывает новые и изменённые файлы.
//
// События из fsnotify переносятся в ограниченную очередь и разбираются
// одним последовательным циклом: файлы никогда не обрабатываются
// параллельно. Callback вызывается, когда путь не менялся в течение Debounce.
type Watcher struct {
	cfg        WatchConfig
	extensions map[string]struct{}
	archiveAbs string
	ready      chan struct{}
	started    atomic.Bool

	seen      atomic.Int64
	dropped   atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	archived  atomic.Int64
}

// NewWatcher создаёт Watcher.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, domain.NewValidationError("root", "watch directory required")
	}
	if cfg.Process == nil {
		return nil, domain.NewValidationError("process", "process callback required")
	}

	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts[ext] = struct{}{}
		}
	}

	w := &Watcher{
		cfg:        cfg,
		extensions: exts,
		ready:      make(chan struct{}),
	}
	if cfg.ArchiveDir != "" {
		if abs, err := filepath.Abs(cfg.ArchiveDir); err == nil {
			w.archiveAbs = abs
		}
	}
	return w, nil
}

// Ready закрывается, когда подписка на события установлена.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Stats возвращает снимок счётчиков.
func (w *Watcher) Stats() WatchStats {
	return WatchStats{
		Seen:      w.seen.Load(),
		Dropped:   w.dropped.Load(),
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Archived:  w.archived.Load(),
	}
}

// Run подписывается на события и обрабатывает их до отмены ctx.
// Возвращает ctx.Err() при остановке или ErrFilesystem, если подписка не удалась.
// Watcher запускается один раз: повторный Run возвращает ErrWatcherStarted.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrWatcherStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", ErrFilesystem, err)
	}
	defer fsw.Close()

	if err := w.subscribe(fsw, w.cfg.Root); err != nil {
		return err
	}

	w.cfg.Logger.Info("watching directory",
		"root", w.cfg.Root,
		"recursive", w.cfg.Recursive,
		"extensions", w.cfg.Extensions,
		"archive", w.cfg.ArchiveDir,
	)

	queue := make(chan string, w.cfg.QueueSize)
	go w.forward(ctx, fsw, queue)
	close(w.ready)

	pending := make(map[string]time.Time)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.cfg.Logger.Info("watch stopped", "stats", w.Stats())
			return ctx.Err()

		case path := <-queue:
			if !w.eligible(path) {
				w.drop(path)
				continue
			}
			if _, ok := pending[path]; !ok {
				w.seen.Add(1)
				telemetry.CountWatchEvent("eligible")
			}
			pending[path] = time.Now().Add(w.cfg.Debounce)
			resetTimer(timer, pending)

		case <-timer.C:
			for _, path := range due(pending, time.Now()) {
				delete(pending, path)
				w.handle(ctx, path)
			}
			resetTimer(timer, pending)
		}
	}
}

// subscribe подписывается на root и, при Recursive, на все поддиректории.
func (w *Watcher) subscribe(fsw *fsnotify.Watcher, root string) error {
	if !w.cfg.Recursive {
		if err := fsw.Add(root); err != nil {
			return fmt.Errorf("%w: watch %s: %v", ErrFilesystem, root, err)
		}
		return nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || w.inArchive(path) {
			return nil
		}
		return fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("%w: watch %s: %v", ErrFilesystem, root, err)
	}
	return nil
}

// forward переносит события create/write в очередь.
// Если очередь заполнена, событие отбрасывается.
func (w *Watcher) forward(ctx context.Context, fsw *fsnotify.Watcher, queue chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if w.cfg.Recursive && event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.inArchive(event.Name) {
					if err := w.subscribe(fsw, event.Name); err != nil {
						w.cfg.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			select {
			case queue <- event.Name:
			default:
				w.drop(event.Name)
				w.cfg.Logger.Warn("watch queue full, event dropped", "path", event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Error("watch error", "error", fmt.Errorf("%w: %v", ErrFilesystem, err))
		}
	}
}

// eligible — обычный файл с разрешённым расширением вне директории архива.
func (w *Watcher) eligible(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, ok := w.extensions[ext]; !ok {
		return false
	}
	if w.inArchive(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (w *Watcher) inArchive(path string) bool {
	if w.archiveAbs == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return abs == w.archiveAbs || strings.HasPrefix(abs, w.archiveAbs+string(filepath.Separator))
}

func (w *Watcher) drop(path string) {
	w.dropped.Add(1)
	telemetry.CountWatchEvent("dropped")
	w.cfg.Logger.Debug("event dropped", "path", path)
}

// handle вызывает callback и архивирует файл при успехе.
func (w *Watcher) handle(ctx context.Context, path string) {
	logger := telemetry.WithFile(w.cfg.Logger, path)

	// Файл мог исчезнуть за время debounce.
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		w.drop(path)
		return
	}

	logger.Info("new file detected")

	if err := w.cfg.Process(ctx, path); err != nil {
		w.failed.Add(1)
		telemetry.CountItem(string(domain.ModeWatch), false)
		logger.Error("processing failed", "error", err)
		return
	}
	w.processed.Add(1)
	telemetry.CountItem(string(domain.ModeWatch), true)

	if w.cfg.ArchiveDir == "" {
		return
	}

	dest, err := Archive(path, w.cfg.ArchiveDir)
	if err != nil {
		logger.Error("archive failed", "error", err)
		return
	}
	w.archived.Add(1)
	telemetry.CountWatchEvent("archived")
	logger.Info("file archived", "dest", dest)
}

// Archive переносит файл в dir под тем же именем. Существующий файл перезаписывается.
func Archive(path, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create archive dir %s: %v", ErrFilesystem, dir, err)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("%w: move %s: %v", ErrFilesystem, path, err)
	}
	return dest, nil
}

// due возвращает пути с истёкшим сроком, отсортированные по сроку.
func due(pending map[string]time.Time, now time.Time) []string {
	var paths []string
	for path, at := range pending {
		if !at.After(now) {
			paths = append(paths, path)
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return pending[paths[i]].Before(pending[paths[j]])
	})
	return paths
}

// resetTimer взводит таймер на ближайший срок из pending.
func resetTimer(timer *time.Timer, pending map[string]time.Time) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	if len(pending) == 0 {
		return
	}

	var next time.Time
	for _, at := range pending {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	timer.Reset(time.Until(next))
}
