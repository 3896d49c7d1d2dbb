package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/shaiso/Glyph/internal/domain"
)

// wireRegion — регион в том виде, в каком его отдаёт движок.
// Координаты могут прийти дробными, поэтому разбираются как float64.
type wireRegion struct {
	BBox       [][]float64 `json:"bbox"`
	Text       *string     `json:"text"`
	Confidence float64     `json:"confidence"`
}

// decodeRegions разбирает JSON-массив регионов и приводит его к контракту detail.
func decodeRegions(data []byte, detail domain.Detail) ([]domain.Region, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("%w: expected JSON array, got %q", ErrProtocol, preview(data))
	}

	var wire []wireRegion
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return normalize(wire, detail)
}

// normalize проверяет регионы и применяет detail.
func normalize(wire []wireRegion, detail domain.Detail) ([]domain.Region, error) {
	regions := make([]domain.Region, 0, len(wire))
	for i, w := range wire {
		if w.Text == nil {
			return nil, fmt.Errorf("%w: region %d has no text", ErrProtocol, i)
		}

		if detail == domain.DetailText {
			regions = append(regions, domain.Region{BBox: []domain.Point{}, Text: *w.Text})
			continue
		}

		if n := len(w.BBox); n != 0 && n != 4 {
			return nil, fmt.Errorf("%w: region %d has %d bbox points, expected 4", ErrProtocol, i, n)
		}
		if w.Confidence < 0 || w.Confidence > 1 || math.IsNaN(w.Confidence) {
			return nil, fmt.Errorf("%w: region %d confidence %v out of range", ErrProtocol, i, w.Confidence)
		}

		bbox := make([]domain.Point, 0, len(w.BBox))
		for j, p := range w.BBox {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: region %d point %d has %d coordinates", ErrProtocol, i, j, len(p))
			}
			bbox = append(bbox, domain.Point{int(math.Round(p[0])), int(math.Round(p[1]))})
		}

		regions = append(regions, domain.Region{
			BBox:       bbox,
			Text:       *w.Text,
			Confidence: w.Confidence,
		})
	}
	return regions, nil
}

// errorMessage извлекает поле "error" из JSON-ответа движка, иначе возвращает
// весь текст без обрезки: последняя строка traceback содержит исключение.
func errorMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return string(data)
}

const maxPreview = 512

// preview обрезает data до maxPreview байт по границе руны.
func preview(data []byte) string {
	if len(data) <= maxPreview {
		return string(data)
	}
	cut := maxPreview
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut]) + "..."
}
