// Package report formats a dashboard run for the command line and saves it.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sector-insights/internal/types"
)

// Format specifies the output format
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

// Reporter generates and stores run reports
type Reporter struct {
	outputDir string
}

// NewReporter creates a reporter writing to outputDir
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// Generate renders report in format
func (r *Reporter) Generate(report *types.RunReport, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return r.generateJSON(report)
	case FormatText:
		return r.generateText(report), nil
	case FormatCSV:
		return r.generateCSV(report)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Save writes the report, plus one SVG file per rendered chart, to the output
// directory. It returns the paths written, report first.
func (r *Reporter) Save(report *types.RunReport, format Format) ([]string, error) {
	content, err := r.Generate(report, format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("%s_insights_%s", report.Symbol, report.StartedAt.Format("2006-01-02_15-04-05"))
	path := filepath.Join(r.outputDir, base+"."+extension(format))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, err
	}
	paths := []string{path}

	for _, p := range report.Panels {
		if p.SVG == "" {
			continue
		}
		svgPath := filepath.Join(r.outputDir, base+"_"+p.Name+".svg")
		if err := os.WriteFile(svgPath, []byte(p.SVG), 0644); err != nil {
			return paths, err
		}
		paths = append(paths, svgPath)
	}
	return paths, nil
}

func extension(f Format) string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

func (r *Reporter) generateJSON(report *types.RunReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Reporter) generateText(report *types.RunReport) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("FINANCIAL INSIGHTS - %s\n", report.Symbol))
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.StartedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Panels: %d, failed: %d\n", len(report.Panels), report.FailedPanels()))
	if report.Err != "" {
		sb.WriteString(fmt.Sprintf("Run error: %s\n", report.Err))
	}

	for _, p := range report.Panels {
		sb.WriteString("\n" + p.Title + "\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		switch {
		case p.Failed():
			sb.WriteString("FAILED: " + p.Err + "\n")
		case p.Text != "":
			sb.WriteString(p.Text + "\n")
		default:
			sb.WriteString(strings.TrimSpace(p.Markdown) + "\n")
		}
	}

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	return sb.String()
}

func (r *Reporter) generateCSV(report *types.RunReport) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"run_id", "symbol", "panel", "status", "duration_ms", "error"}}
	for _, p := range report.Panels {
		status := "ok"
		if p.Failed() {
			status = "failed"
		}
		rows = append(rows, []string{report.RunID, report.Symbol, p.Name, status, strconv.FormatInt(p.Duration, 10), p.Err})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}
