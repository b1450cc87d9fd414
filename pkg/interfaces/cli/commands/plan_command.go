package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/domain/services/allocation"
	"github.com/vsinha/capplan/pkg/infrastructure/config"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/capplan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command
type Config struct {
	ScenarioDir      string
	DemandFile       string
	RatesFile        string
	CalendarFile     string
	LineCalendarFile string
	OutputDir        string
	Format           string
	Policy           string
	Parallel         bool
	LPTolerance      float64
	Precision        int32
	Verbose          bool
	Help             bool
	Stdout           io.Writer
}

// ConfigFrom seeds command configuration from application configuration
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ScenarioDir:      cfg.Scenario.Dir,
		DemandFile:       cfg.Scenario.Demand,
		RatesFile:        cfg.Scenario.Rates,
		CalendarFile:     cfg.Scenario.Calendar,
		LineCalendarFile: cfg.Scenario.LineCalendar,
		OutputDir:        cfg.Output.Dir,
		Format:           cfg.Output.Format,
		Policy:           cfg.Engine.Policy,
		Parallel:         cfg.Engine.Parallel,
		LPTolerance:      cfg.Engine.LPTolerance,
		Precision:        cfg.Output.Precision,
	}
}

// PlanCommand loads a scenario, runs the planner and renders the result
type PlanCommand struct {
	config Config
	log    zerolog.Logger
}

// NewPlanCommand creates a new plan command with the given configuration
func NewPlanCommand(config Config, log zerolog.Logger) *PlanCommand {
	return &PlanCommand{
		config: config,
		log:    log,
	}
}

func (c *PlanCommand) stdout() io.Writer {
	if c.config.Stdout == nil {
		return os.Stdout
	}
	return c.config.Stdout
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	policy, err := allocation.ParsePolicy(c.config.Policy)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	loader := csv.NewLoader()
	scenario, err := loader.LoadScenario(c.config.ScenarioDir, csv.Files{
		Demand:       c.config.DemandFile,
		Rates:        c.config.RatesFile,
		Calendar:     c.config.CalendarFile,
		LineCalendar: c.config.LineCalendarFile,
	})
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(scenario)
	}

	c.log.Debug().
		Str("scenario", scenario.Name).
		Int("demand_rows", len(scenario.Input.Demand)).
		Int("rate_rows", len(scenario.Input.Rates)).
		Int("months", len(scenario.Input.Calendar)).
		Int("line_overrides", len(scenario.Input.LineCalendars)).
		Msg("scenario loaded")

	planner, err := services.NewPlanningService(services.PlanningOptions{
		Policy:      policy,
		Parallel:    c.config.Parallel,
		LPTolerance: c.config.LPTolerance,
	}, c.log)
	if err != nil {
		return err
	}

	startTime := time.Now()
	result, err := planner.Plan(ctx, scenario.Input)
	if err != nil {
		return fmt.Errorf("error running planner: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.stdout(), "✅ Planning completed in %v\n\n", time.Since(startTime))
	}

	err = output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Precision: c.config.Precision,
		InputFiles: map[string]string{
			"Demand":        scenario.Files.Demand,
			"Rates":         scenario.Files.Rates,
			"Calendar":      scenario.Files.Calendar,
			"Line Calendar": scenario.Files.LineCalendar,
		},
		Render: output.RenderConfig{Title: scenario.Name},
		Stdout: c.stdout(),
	})
	if err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	return nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if c.config.ScenarioDir == "" &&
		(c.config.DemandFile == "" || c.config.RatesFile == "" || c.config.CalendarFile == "") {
		return fmt.Errorf("must specify either -scenario directory or -demand, -rates and -calendar files")
	}
	if c.config.Format == "" {
		c.config.Format = "text"
	}
	return nil
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(scenario *csv.Scenario) {
	w := c.stdout()
	fmt.Fprintf(w, "🚀 Capacity Planner CLI\n")
	if scenario.Name != "" {
		fmt.Fprintf(w, "Scenario: %s\n", scenario.Name)
	}
	fmt.Fprintf(w, "Input files:\n")
	fmt.Fprintf(w, "  Demand: %s\n", scenario.Files.Demand)
	fmt.Fprintf(w, "  Rates: %s\n", scenario.Files.Rates)
	fmt.Fprintf(w, "  Calendar: %s\n", scenario.Files.Calendar)
	if scenario.Files.LineCalendar != "" {
		fmt.Fprintf(w, "  Line Calendar: %s\n", scenario.Files.LineCalendar)
	}
	fmt.Fprintf(w, "Policy: %s\n", c.config.Policy)
	fmt.Fprintf(w, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(w, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(w)
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.stdout(), `Capacity Planner CLI - monthly production capacity allocation

USAGE:
    capplan -scenario <directory>                         # Use scenario directory with CSV files
    capplan -demand <file> -rates <file> -calendar <file> # Use individual CSV files
    capplan generate [OPTIONS]                            # Generate a synthetic scenario

OPTIONS:
    -config <file>        YAML configuration file (optional)
    -scenario <dir>       Path to scenario directory containing CSV files
    -demand <file>        Path to demand CSV file
    -rates <file>         Path to rates CSV file
    -calendar <file>      Path to calendar CSV file
    -line-calendar <file> Path to per-line calendar overrides (optional)
    -policy <name>        Allocation policy: greedy, lp (default: greedy)
    -parallel             Allocate months concurrently
    -output <dir>         Output directory for results (optional)
    -format <fmt>         Output format: text, json, csv, html (default: text)
    -precision <n>        Decimal places in rendered numbers (default: 2)
    -verbose              Enable verbose output
    -help                 Show this help message

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── scenario.yaml      # Optional manifest: name, file names, priorities
    ├── demand.csv         # Demand per product and month
    ├── rates.csv          # Units per hour per line and product
    ├── calendar.csv       # Available hours per month
    └── line_calendar.csv  # Optional per-line overrides

CSV FILE FORMATS:

demand.csv (long or wide):
    product,month,quantity
    WIDGET_A,2025-01,1200

    product,priority,2025-01,2025-02
    WIDGET_A,1,1200,900

rates.csv (line rows or product rows; empty or 0 = not eligible):
    line,WIDGET_A,WIDGET_B
    LINE_1,10,
    LINE_2,5,8

calendar.csv:
    month,available_time
    2025-01,160

    month,working_days,hours_per_day
    2025-01,20,8

line_calendar.csv:
    line,month,available_time
    LINE_2,2025-01,80

ENVIRONMENT:
    CAPPLAN_ENGINE_POLICY, CAPPLAN_OUTPUT_FORMAT, CAPPLAN_LOG_LEVEL, ...

EXAMPLES:
    # Plan a scenario with the default waterfall
    capplan -scenario scenarios/baseline -verbose

    # Exact allocation, CSV tables written to results/
    capplan -scenario scenarios/baseline -policy lp -format csv -output results/

    # HTML heatmap report
    capplan -scenario scenarios/baseline -format html -output results/
`)
}
