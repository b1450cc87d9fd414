package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/vsinha/capplan/pkg/application/dto"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	Precision  int32
	InputFiles map[string]string
	Render     RenderConfig
	Stdout     io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Generate creates output in the specified format
func Generate(result *dto.PlanResult, config Config) error {
	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "html":
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints a summary, the shortfall list and both heatmaps
func generateTextOutput(result *dto.PlanResult, config Config) error {
	w := config.stdout()
	m := result.Metadata

	fmt.Fprintf(w, "📊 Capacity Plan Summary\n")
	fmt.Fprintf(w, "========================\n\n")
	fmt.Fprintf(w, "Policy: %s\n", m.Policy)
	fmt.Fprintf(w, "Horizon: %d months, Lines: %d, Products: %d\n", len(m.Horizon), len(m.Lines), len(m.Products))
	fmt.Fprintf(w, "Demand: %s  Allocated: %s  Shortfall: %s\n",
		formatNumber(m.TotalDemand, config.Precision),
		formatNumber(m.TotalAllocated, config.Precision),
		formatNumber(m.TotalShortfall, config.Precision))
	fmt.Fprintf(w, "Overall Fill Rate: %.1f%%\n", m.OverallFillRate*100)
	fmt.Fprintf(w, "Planning Time: %v\n\n", result.Duration)

	if config.Verbose && len(config.InputFiles) > 0 {
		names := make([]string, 0, len(config.InputFiles))
		for name, path := range config.InputFiles {
			if path != "" {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		fmt.Fprintf(w, "Inputs:\n")
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, config.InputFiles[name])
		}
		fmt.Fprintln(w)
	}

	if len(m.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Warnings:\n")
		for _, warning := range m.Warnings {
			fmt.Fprintf(w, "  [%s] %s\n", warning.Code, warning.Message)
		}
		fmt.Fprintln(w)
	}

	if err := FillRateHeatmap(result).WriteText(w); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := UtilizationHeatmap(result).WriteText(w); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if result.ShortfallCount() > 0 {
		fmt.Fprintf(w, "📉 Shortfalls:\n")
		fmt.Fprintf(w, "%-20s %-10s %12s %12s %12s\n", "Product", "Month", "Demand", "Allocated", "Shortfall")
		fmt.Fprintf(w, "%-20s %-10s %12s %12s %12s\n",
			"--------------------", "----------", "------------", "------------", "------------")
		for _, s := range result.Shortfalls {
			if s.Shortfall <= 0 {
				continue
			}
			fmt.Fprintf(w, "%-20s %-10s %12s %12s %12s\n",
				s.Product, s.Month,
				formatNumber(s.Demand, config.Precision),
				formatNumber(s.Allocated, config.Precision),
				formatNumber(s.Shortfall, config.Precision))
		}
		fmt.Fprintln(w)
	}

	if config.OutputDir != "" {
		return writeTableFiles(result, config)
	}
	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "plan_result.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput creates CSV output
func generateCSVOutput(result *dto.PlanResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	return writeTableFiles(result, config)
}

// writeTableFiles writes every result table plus metadata.json
func writeTableFiles(result *dto.PlanResult, config Config) error {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	written := make([]string, 0, len(Tables)+1)
	for _, table := range Tables {
		filename := filepath.Join(config.OutputDir, table.FileName())
		err := writeFile(filename, func(w io.Writer) error {
			return WriteTable(w, result, table, config.Precision)
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", table.FileName(), err)
		}
		written = append(written, filename)
	}

	metaFile := filepath.Join(config.OutputDir, MetadataFile)
	if err := writeFile(metaFile, func(w io.Writer) error { return WriteMetadata(w, result) }); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetadataFile, err)
	}
	written = append(written, metaFile)

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 CSV results saved to:\n")
		for _, f := range written {
			fmt.Fprintf(config.stdout(), "  %s\n", f)
		}
	}
	return nil
}

// generateHTMLOutput writes report.html to the output directory, or the
// page itself to stdout when no directory is given
func generateHTMLOutput(result *dto.PlanResult, config Config) error {
	render := config.Render
	if render.Precision == 0 {
		render.Precision = config.Precision
	}

	if config.OutputDir == "" {
		return RenderHTML(config.stdout(), result, render)
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "report.html")
	if err := writeFile(filename, func(w io.Writer) error { return RenderHTML(w, result, render) }); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "🌐 HTML report saved to: %s\n", filename)
	}
	return nil
}

func writeFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
