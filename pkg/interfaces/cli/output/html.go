package output

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/vsinha/capplan/pkg/application/dto"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// RenderConfig controls how a report page looks. It is passed on every
// call and never stored.
type RenderConfig struct {
	Title      string
	LowColor   string
	HighColor  string
	CellWidth  int
	CellHeight int
	Precision  int32
	ShowValues bool
}

// DefaultRenderConfig returns a blue scale matching the planner dashboard
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Title:      "Production Capacity Plan",
		LowColor:   "#f7fbff",
		HighColor:  "#08306b",
		CellWidth:  64,
		CellHeight: 28,
		Precision:  2,
		ShowValues: true,
	}
}

func (cfg RenderConfig) withDefaults() RenderConfig {
	def := DefaultRenderConfig()
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.LowColor == "" {
		cfg.LowColor = def.LowColor
	}
	if cfg.HighColor == "" {
		cfg.HighColor = def.HighColor
	}
	if cfg.CellWidth <= 0 {
		cfg.CellWidth = def.CellWidth
	}
	if cfg.CellHeight <= 0 {
		cfg.CellHeight = def.CellHeight
	}
	return cfg
}

// reportData contains all data for rendering the HTML template
type reportData struct {
	Title       string
	Summary     string
	RunID       string
	GeneratedAt string
	Policy      string
	FillRateSVG template.HTML
	UtilSVG     template.HTML
	Shortfalls  []shortfallRow
	Warnings    []string
}

type shortfallRow struct {
	Product   string
	Month     string
	Demand    string
	Allocated string
	Shortfall string
}

// RenderHTML writes a self-contained report page with both heatmaps
func RenderHTML(w io.Writer, result *dto.PlanResult, cfg RenderConfig) error {
	cfg = cfg.withDefaults()

	data := reportData{
		Title:       cfg.Title,
		Summary:     result.GetSummary(),
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt.Format("2006-01-02 15:04:05"),
		Policy:      result.Metadata.Policy,
		// SVG is built from escaped labels only
		FillRateSVG: template.HTML(FillRateHeatmap(result).SVG(cfg)),
		UtilSVG:     template.HTML(UtilizationHeatmap(result).SVG(cfg)),
	}
	for _, s := range result.Shortfalls {
		if s.Shortfall <= 0 {
			continue
		}
		data.Shortfalls = append(data.Shortfalls, shortfallRow{
			Product:   string(s.Product),
			Month:     string(s.Month),
			Demand:    formatNumber(s.Demand, cfg.Precision),
			Allocated: formatNumber(s.Allocated, cfg.Precision),
			Shortfall: formatNumber(s.Shortfall, cfg.Precision),
		})
	}
	for _, warning := range result.Metadata.Warnings {
		data.Warnings = append(data.Warnings, warning.Message)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
