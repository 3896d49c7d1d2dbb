// Package imageprobe читает заголовок изображения: формат и размеры.
//
// Полное декодирование не выполняется, распознавание остаётся на стороне
// движка. Поддерживаются форматы, которые принимает Watcher по умолчанию
// (jpeg, png, bmp, tiff), а также gif и webp.
package imageprobe

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupported — данные не похожи на изображение поддерживаемого формата.
var ErrUnsupported = errors.New("unsupported image")

// Info — сведения из заголовка изображения.
type Info struct {
	Path   string `json:"path,omitempty"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Probe читает заголовок файла.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	info, err := ProbeReader(f)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	info.Path = path
	return info, nil
}

// ProbeReader читает заголовок изображения из r.
func ProbeReader(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
