package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shaiso/Glyph/internal/config"
	"github.com/shaiso/Glyph/internal/domain"
	"github.com/shaiso/Glyph/internal/engine"
	"github.com/shaiso/Glyph/internal/format"
)

// ProcessorConfig — конфигурация обработчика одиночных файлов для Watcher.
type ProcessorConfig struct {
	Client engine.Client
	Params config.Params

	// OutputDir — если задан, результат пишется в OutputDir/<имя>.json,
	// иначе в Output в формате Params.Output.
	OutputDir string
	Output    io.Writer

	Options Options
}

// NewProcessor возвращает ProcessFunc, который распознаёт файл,
// выводит результат и отправляет outcome в sinks.
func NewProcessor(cfg ProcessorConfig) ProcessFunc {
	opts := cfg.Options.withDefaults()
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var (
		mu    sync.Mutex
		index int
	)

	return func(ctx context.Context, path string) error {
		regions, err := cfg.Client.Invoke(ctx, cfg.Params.Request(path))

		mu.Lock()
		i := index
		index++
		mu.Unlock()

		if err != nil {
			record(ctx, opts, domain.ModeWatch, i, domain.Failed(path, err))
			return err
		}
		record(ctx, opts, domain.ModeWatch, i, domain.Succeeded(path, regions))

		if cfg.OutputDir != "" {
			dest, err := SaveResults(cfg.OutputDir, path, regions, cfg.Params.Detail)
			if err != nil {
				return err
			}
			opts.Logger.Info("results saved", "file", path, "dest", dest)
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "==> %s\n", path)
		return format.WriteResults(out, cfg.Params.Output, regions, cfg.Params.Detail)
	}
}

// SaveResults пишет результат распознавания source в dir/<имя без расширения>.json.
func SaveResults(dir, source string, regions []domain.Region, detail domain.Detail) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir %s: %v", ErrFilesystem, dir, err)
	}

	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
	dest := filepath.Join(dir, name)

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrFilesystem, dest, err)
	}
	if err := format.WriteResults(f, format.JSON, regions, detail); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", ErrFilesystem, dest, err)
	}
	return dest, nil
}
