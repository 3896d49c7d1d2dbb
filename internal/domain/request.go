package domain

import (
	"fmt"
	"strings"
)

// Detail — уровень детализации результата распознавания.
//
//	0 — только текст (без геометрии и confidence)
//	1 — полные регионы: bbox + text + confidence
type Detail int

const (
	// DetailText — только текст.
	DetailText Detail = 0

	// DetailFull — текст, bounding box и confidence.
	DetailFull Detail = 1
)

// Valid возвращает true для 0 и 1.
func (d Detail) Valid() bool {
	return d == DetailText || d == DetailFull
}

// Request — запрос на распознавание одного изображения.
//
// Изображение задаётся либо путём (ImagePath), либо байтами (Image).
// Если заданы оба, ImagePath имеет приоритет для subprocess-стратегии,
// а Image — для серверной (файл не перечитывается).
type Request struct {
	// ImagePath — путь к файлу изображения.
	ImagePath string `json:"image_path,omitempty"`

	// Image — содержимое изображения.
	Image []byte `json:"-"`

	// Languages — коды языков в порядке приоритета (например, ["ch_sim", "en"]).
	Languages []string `json:"languages"`

	// Detail — уровень детализации.
	Detail Detail `json:"detail"`

	// GPU — использовать GPU (CUDA) на стороне движка.
	GPU bool `json:"gpu"`
}

// Source возвращает человекочитаемое имя источника изображения (для логов и ошибок).
func (r Request) Source() string {
	if r.ImagePath != "" {
		return r.ImagePath
	}
	return fmt.Sprintf("<%d bytes>", len(r.Image))
}

// LanguageList возвращает языки через запятую — формат аргумента bridge-скрипта.
func (r Request) LanguageList() string {
	return strings.Join(r.Languages, ",")
}

// Validate проверяет запрос перед отправкой движку.
func (r Request) Validate() error {
	if r.ImagePath == "" && len(r.Image) == 0 {
		return NewValidationError("image", "image path or image bytes required")
	}
	if len(r.Languages) == 0 {
		return NewValidationError("languages", "at least one language required")
	}
	for _, lang := range r.Languages {
		if strings.TrimSpace(lang) == "" {
			return NewValidationError("languages", "empty language code")
		}
	}
	if !r.Detail.Valid() {
		return NewValidationError("detail", fmt.Sprintf("detail level must be 0 or 1, got %d", r.Detail))
	}
	return nil
}
