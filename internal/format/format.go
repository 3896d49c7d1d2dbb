// Package format сериализует результаты распознавания в текстовые представления.
//
// Форматы одного результата (флаг --output): json, text, detailed.
// Форматы отчёта по набору файлов (флаг --report): json, csv, xml, markdown, table.
//
// Пакет не хранит состояния: все функции пишут в переданный io.Writer.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shaiso/Glyph/internal/domain"
)

// Форматы результата.
const (
	JSON     = "json"
	Text     = "text"
	Detailed = "detailed"
)

// Дополнительные форматы отчёта.
const (
	CSV      = "csv"
	XML      = "xml"
	Markdown = "markdown"
	Table    = "table"
)

var (
	resultFormats = []string{JSON, Text, Detailed}
	reportFormats = []string{JSON, CSV, XML, Markdown, Table}
)

// IsResultFormat проверяет формат вывода одного результата.
func IsResultFormat(f string) bool {
	return slices.Contains(resultFormats, f)
}

// IsReportFormat проверяет формат отчёта.
func IsReportFormat(f string) bool {
	return slices.Contains(reportFormats, f)
}

// ReportFormats возвращает список форматов отчёта (для help-текста флагов).
func ReportFormats() string {
	return strings.Join(reportFormats, "|")
}

// WriteResults выводит регионы одного изображения.
//
// В detailed-формате геометрия и confidence печатаются только при detail=1.
func WriteResults(w io.Writer, f string, regions []domain.Region, detail domain.Detail) error {
	if regions == nil {
		regions = []domain.Region{}
	}

	switch f {
	case JSON:
		return writeJSON(w, regions)
	case Text:
		for _, r := range regions {
			if _, err := fmt.Fprintln(w, r.Text); err != nil {
				return err
			}
		}
		return nil
	case Detailed:
		for i, r := range regions {
			fmt.Fprintf(w, "--- Result %d ---\n", i+1)
			fmt.Fprintf(w, "Text: %s\n", r.Text)
			if detail == domain.DetailFull {
				fmt.Fprintf(w, "Confidence: %.4f\n", r.Confidence)
				fmt.Fprintf(w, "Bounding Box: %s\n", formatBBox(r.BBox))
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	default:
		return domain.NewValidationError("output", fmt.Sprintf("invalid output format %q, use: json, text, or detailed", f))
	}
}

// WriteReport выводит outcomes набора файлов.
func WriteReport(w io.Writer, f string, outcomes []domain.BatchItemOutcome) error {
	if outcomes == nil {
		outcomes = []domain.BatchItemOutcome{}
	}

	switch f {
	case JSON:
		return writeJSON(w, outcomes)
	case CSV:
		return writeCSV(w, outcomes)
	case XML:
		return writeXML(w, outcomes)
	case Markdown:
		return writeMarkdown(w, outcomes)
	case Table:
		return writeTable(w, outcomes)
	default:
		return domain.NewValidationError("report", fmt.Sprintf("invalid report format %q, use: %s", f, ReportFormats()))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func formatBBox(bbox []domain.Point) string {
	parts := make([]string, len(bbox))
	for i, p := range bbox {
		parts[i] = fmt.Sprintf("[%d, %d]", p[0], p[1])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
