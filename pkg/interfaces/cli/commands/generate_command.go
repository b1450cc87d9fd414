package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Products    int     // Number of products
	Lines       int     // Number of production lines
	Months      int     // Length of the horizon
	StartMonth  string  // First month, YYYY-MM
	Load        float64 // Demand as a multiple of capacity (e.g., 0.8 = slack, 1.5 = overloaded)
	Eligibility float64 // Probability that a line can make a given product
	OutputDir   string  // Output directory for generated files
	Seed        int64   // Random seed for reproducible generation
	Help        bool    // Show help
	Verbose     bool    // Verbose output

	Stdout io.Writer
}

// GenerateCommand handles scenario generation
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.StartMonth == "" {
		config.StartMonth = "2025-01"
	}
	if config.Eligibility <= 0 {
		config.Eligibility = 0.5
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// generatedScenario is the in-memory form of a synthetic scenario
type generatedScenario struct {
	products []string
	lines    []string
	months   []string
	hours    []int                // working days × 8h per month
	rates    map[string][]float64 // line -> rate per product, 0 = not eligible
	demand   [][]float64          // product -> quantity per month
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Stdout,
			"🔧 Generating scenario with %d products, %d lines, %d months, %.1fx load\n",
			cmd.config.Products, cmd.config.Lines, cmd.config.Months, cmd.config.Load)
		fmt.Fprintf(cmd.config.Stdout, "📁 Output directory: %s\n", cmd.config.OutputDir)
		fmt.Fprintf(cmd.config.Stdout, "🎲 Random seed: %d\n", cmd.config.Seed)
	}

	if err := os.MkdirAll(cmd.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scenario, err := cmd.build()
	if err != nil {
		return err
	}

	steps := []struct {
		file  string
		write func(io.Writer, *generatedScenario) error
	}{
		{csv.DefaultCalendarFile, writeCalendar},
		{csv.DefaultRatesFile, writeRates},
		{csv.DefaultDemandFile, writeDemand},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cmd.config.Verbose {
			fmt.Fprintf(cmd.config.Stdout, "📄 Generating %s...\n", step.file)
		}
		path := filepath.Join(cmd.config.OutputDir, step.file)
		if err := writeFile(path, func(w io.Writer) error { return step.write(w, scenario) }); err != nil {
			return fmt.Errorf("failed to generate %s: %w", step.file, err)
		}
	}

	if err := cmd.writeManifest(scenario); err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Stdout, "✅ Scenario generated successfully in %s\n", cmd.config.OutputDir)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	c := cmd.config
	if c.Products <= 0 || c.Lines <= 0 || c.Months <= 0 {
		return fmt.Errorf("products, lines and months must be positive")
	}
	if c.Load < 0 || math.IsNaN(c.Load) {
		return fmt.Errorf("load must be non-negative, got %v", c.Load)
	}
	if c.Eligibility > 1 {
		return fmt.Errorf("eligibility must be at most 1, got %v", c.Eligibility)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if _, err := time.Parse("2006-01", c.StartMonth); err != nil {
		return fmt.Errorf("invalid start month %q: expected YYYY-MM", c.StartMonth)
	}
	return nil
}

// build draws a scenario in which every product has at least one eligible
// line and each month's demand is Load times the capacity of the lines
// that can make it, shared evenly between their products
func (cmd *GenerateCommand) build() (*generatedScenario, error) {
	c := cmd.config
	start, err := time.Parse("2006-01", c.StartMonth)
	if err != nil {
		return nil, err
	}

	s := &generatedScenario{rates: make(map[string][]float64)}
	for i := 0; i < c.Products; i++ {
		s.products = append(s.products, fmt.Sprintf("PRODUCT_%03d", i+1))
	}
	for i := 0; i < c.Lines; i++ {
		line := fmt.Sprintf("LINE_%02d", i+1)
		s.lines = append(s.lines, line)
		s.rates[line] = make([]float64, c.Products)
	}
	for i := 0; i < c.Months; i++ {
		s.months = append(s.months, start.AddDate(0, i, 0).Format("2006-01"))
		s.hours = append(s.hours, (18+cmd.rand.Intn(5))*8)
	}

	for p := range s.products {
		eligible := false
		for _, line := range s.lines {
			if cmd.rand.Float64() < c.Eligibility {
				s.rates[line][p] = cmd.generateRate()
				eligible = true
			}
		}
		if !eligible {
			line := s.lines[cmd.rand.Intn(len(s.lines))]
			s.rates[line][p] = cmd.generateRate()
		}
	}

	// share of each line's hours per product
	share := make([]float64, c.Products)
	for _, line := range s.lines {
		n := 0
		for _, r := range s.rates[line] {
			if r > 0 {
				n++
			}
		}
		for p, r := range s.rates[line] {
			if r > 0 {
				share[p] += r / float64(n)
			}
		}
	}

	s.demand = make([][]float64, c.Products)
	for p := range s.products {
		s.demand[p] = make([]float64, c.Months)
		for m := range s.months {
			noise := 0.7 + 0.6*cmd.rand.Float64()
			s.demand[p][m] = math.Round(c.Load * share[p] * float64(s.hours[m]) * noise)
		}
	}

	return s, nil
}

// generateRate draws a units-per-hour rate between 1 and 20 in half steps
func (cmd *GenerateCommand) generateRate() float64 {
	return float64(2+cmd.rand.Intn(39)) / 2
}

func writeCalendar(w io.Writer, s *generatedScenario) error {
	fmt.Fprintln(w, "month,working_days,hours_per_day")
	for i, m := range s.months {
		if _, err := fmt.Fprintf(w, "%s,%d,8\n", m, s.hours[i]/8); err != nil {
			return err
		}
	}
	return nil
}

func writeRates(w io.Writer, s *generatedScenario) error {
	fmt.Fprintf(w, "line,%s\n", strings.Join(s.products, ","))
	for _, line := range s.lines {
		cells := make([]string, len(s.products))
		for p, r := range s.rates[line] {
			if r > 0 {
				cells[p] = strconv.FormatFloat(r, 'f', -1, 64)
			}
		}
		if _, err := fmt.Fprintf(w, "%s,%s\n", line, strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	return nil
}

func writeDemand(w io.Writer, s *generatedScenario) error {
	fmt.Fprintf(w, "product,%s\n", strings.Join(s.months, ","))
	for p, product := range s.products {
		cells := make([]string, len(s.months))
		for m, q := range s.demand[p] {
			cells[m] = strconv.FormatFloat(q, 'f', -1, 64)
		}
		if _, err := fmt.Fprintf(w, "%s,%s\n", product, strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	return nil
}

// writeManifest ranks the first few products ahead of the rest
func (cmd *GenerateCommand) writeManifest(s *generatedScenario) error {
	manifest := csv.Manifest{
		Name:        filepath.Base(cmd.config.OutputDir),
		Description: fmt.Sprintf("synthetic: %d products, %d lines, %.2fx load", len(s.products), len(s.lines), cmd.config.Load),
		Priorities:  make(map[string]int),
	}
	for i, product := range s.products {
		if i >= 3 {
			break
		}
		manifest.Priorities[product] = i + 1
	}

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cmd.config.OutputDir, csv.ManifestFile), data, 0644)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printHelp shows usage information
func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintln(cmd.config.Stdout, `Capacity Planner Scenario Generator

USAGE:
    capplan generate [OPTIONS]

OPTIONS:
    -products <N>       Number of products (required)
    -lines <N>          Number of production lines (required)
    -months <N>         Number of months in the horizon (required)
    -start <YYYY-MM>    First month (default: 2025-01)
    -load <F>           Demand as a multiple of capacity (e.g., 0.8 = slack, 1.5 = overloaded)
    -eligibility <F>    Probability that a line can make a product (default: 0.5)
    -output <DIR>       Output directory for generated files (required)
    -seed <N>           Random seed for reproducible generation (optional)
    -verbose            Enable verbose output
    -help               Show this help message

EXAMPLES:
    # Small slack scenario
    capplan generate -products 10 -lines 3 -months 6 -load 0.8 -output ./small

    # Overloaded, reproducible scenario
    capplan generate -products 200 -lines 12 -months 24 -load 1.4 -seed 12345 -output ./large`)
}
