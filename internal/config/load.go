package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Имена файлов конфигурации.
const (
	SystemPath      = "/etc/glyph/config.toml"
	ProjectFilename = "glyph.toml"
	appDir          = "glyph"
	userFilename    = "config.toml"
)

// DefaultPaths возвращает пути слоёв по возрастанию приоритета: system, user, project.
// Если пользовательский каталог конфигурации не определён, слой пропускается.
func DefaultPaths() []string {
	paths := []string{SystemPath}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appDir, userFilename))
	}
	paths = append(paths, ProjectFilename)
	return paths
}

// UserPath возвращает путь пользовательского файла конфигурации.
func UserPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve user config dir: %v", ErrConfigIO, err)
	}
	return filepath.Join(dir, appDir, userFilename), nil
}

// Loader загружает слои конфигурации.
type Loader struct {
	// Paths — необязательные слои по возрастанию приоритета.
	Paths []string

	// Explicit — обязательный слой с наивысшим приоритетом (флаг --config).
	Explicit string

	// Logger (опционально; если nil — slog.Default()).
	Logger *slog.Logger
}

// Load читает все слои и возвращает результат их слияния.
func (l *Loader) Load() (*Config, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		layers  []Layer
		sources []string
	)

	for _, path := range l.Paths {
		layer, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			logger.Debug("config layer not found", "path", path)
			continue
		}
		logger.Debug("config layer loaded", "path", path)
		layers = append(layers, *layer)
		sources = append(sources, path)
	}

	if l.Explicit != "" {
		layer, err := LoadFile(l.Explicit)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			return nil, fmt.Errorf("%w: config file not found: %s", ErrConfigIO, l.Explicit)
		}
		layers = append(layers, *layer)
		sources = append(sources, l.Explicit)
	}

	return &Config{Layer: Merge(layers...), Sources: sources}, nil
}

// LoadFile читает один слой.
//
// Возвращает (nil, nil), если файла нет.
func LoadFile(path string) (*Layer, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrConfigIO, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: config path is a directory: %s", ErrConfigIO, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfigIO, path, err)
	}

	return Parse(data, path)
}

// Parse разбирает содержимое одного слоя. name используется в сообщениях об ошибках.
func Parse(data []byte, name string) (*Layer, error) {
	var layer Layer
	if _, err := toml.Decode(string(data), &layer); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, name, err)
	}
	return &layer, nil
}
