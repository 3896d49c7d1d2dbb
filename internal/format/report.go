package format

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Glyph/internal/domain"
)

// writeCSV — одна строка на регион; неуспешный файл даёт одну строку с error.
// Колонки bbox — левый верхний (точка 1) и правый нижний (точка 3) углы.
func writeCSV(w io.Writer, outcomes []domain.BatchItemOutcome) error {
	cw := csv.NewWriter(w)

	header := []string{"file", "success", "text", "confidence", "bbox_x1", "bbox_y1", "bbox_x2", "bbox_y2", "error"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, o := range outcomes {
		if !o.Success {
			if err := cw.Write([]string{o.File, "false", "", "", "", "", "", "", o.Error}); err != nil {
				return err
			}
			continue
		}
		for _, r := range o.Results {
			row := []string{o.File, "true", r.Text, strconv.FormatFloat(r.Confidence, 'f', 4, 64), "", "", "", "", ""}
			if len(r.BBox) >= 3 {
				row[4] = strconv.Itoa(r.BBox[0][0])
				row[5] = strconv.Itoa(r.BBox[0][1])
				row[6] = strconv.Itoa(r.BBox[2][0])
				row[7] = strconv.Itoa(r.BBox[2][1])
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

type xmlReport struct {
	XMLName xml.Name  `xml:"ocr_results"`
	Files   []xmlFile `xml:"file"`
}

type xmlFile struct {
	Path    string      `xml:"path,attr"`
	Success bool        `xml:"success,attr"`
	Error   string      `xml:"error,omitempty"`
	Results []xmlRegion `xml:"result"`
}

type xmlRegion struct {
	Text       string     `xml:"text"`
	Confidence float64    `xml:"confidence"`
	Points     []xmlPoint `xml:"bbox>point,omitempty"`
}

type xmlPoint struct {
	X int `xml:"x,attr"`
	Y int `xml:"y,attr"`
}

func writeXML(w io.Writer, outcomes []domain.BatchItemOutcome) error {
	report := xmlReport{Files: make([]xmlFile, 0, len(outcomes))}
	for _, o := range outcomes {
		f := xmlFile{Path: o.File, Success: o.Success, Error: o.Error}
		for _, r := range o.Results {
			region := xmlRegion{Text: r.Text, Confidence: r.Confidence}
			for _, p := range r.BBox {
				region.Points = append(region.Points, xmlPoint{X: p[0], Y: p[1]})
			}
			f.Results = append(f.Results, region)
		}
		report.Files = append(report.Files, f)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeMarkdown(w io.Writer, outcomes []domain.BatchItemOutcome) error {
	var b strings.Builder
	b.WriteString("# OCR Results\n\n")

	for i, o := range outcomes {
		fmt.Fprintf(&b, "## %d. `%s`\n\n", i+1, o.File)
		if !o.Success {
			fmt.Fprintf(&b, "**Error:** %s\n\n---\n\n", o.Error)
			continue
		}

		fmt.Fprintf(&b, "**Text:**\n```\n%s\n```\n\n", strings.Join(domain.Texts(o.Results), "\n"))
		for j, r := range o.Results {
			if len(r.BBox) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- Region %d: %.2f%% at %s\n", j+1, r.Confidence*100, formatBBox(r.BBox))
		}
		b.WriteString("\n---\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(w io.Writer, outcomes []domain.BatchItemOutcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := []string{"FILE", "STATUS", "REGIONS", "ERROR"}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, o := range outcomes {
		status := "ok"
		if !o.Success {
			status = "failed"
		}
		fmt.Fprintln(tw, strings.Join([]string{o.File, status, strconv.Itoa(len(o.Results)), o.Error}, "\t"))
	}

	return tw.Flush()
}
