package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/capplan/pkg/infrastructure/config"
	"github.com/vsinha/capplan/pkg/infrastructure/logger"
	"github.com/vsinha/capplan/pkg/interfaces/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "generate" {
		err = runGenerate(ctx, os.Args[2:])
	} else {
		err = runPlan(ctx, os.Args[1:])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("capplan", flag.ExitOnError)
	var (
		configPath       = fs.String("config", "", "Path to YAML configuration file (optional)")
		scenarioDir      = fs.String("scenario", "", "Path to scenario directory containing CSV files")
		demandFile       = fs.String("demand", "", "Path to demand CSV file")
		ratesFile        = fs.String("rates", "", "Path to rates CSV file")
		calendarFile     = fs.String("calendar", "", "Path to calendar CSV file")
		lineCalendarFile = fs.String("line-calendar", "", "Path to per-line calendar CSV file (optional)")
		policy           = fs.String("policy", "", "Allocation policy: greedy, lp")
		parallel         = fs.Bool("parallel", false, "Allocate months concurrently")
		outputDir        = fs.String("output", "", "Output directory for results (optional)")
		format           = fs.String("format", "", "Output format: text, json, csv, html")
		precision        = fs.Int("precision", 2, "Decimal places in rendered numbers")
		verbose          = fs.Bool("verbose", false, "Enable verbose output")
		help             = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	cmdConfig := commands.ConfigFrom(cfg)
	cmdConfig.Verbose = *verbose
	cmdConfig.Help = *help

	// flags given on the command line win over file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scenario":
			cmdConfig.ScenarioDir = *scenarioDir
		case "demand":
			cmdConfig.DemandFile = *demandFile
		case "rates":
			cmdConfig.RatesFile = *ratesFile
		case "calendar":
			cmdConfig.CalendarFile = *calendarFile
		case "line-calendar":
			cmdConfig.LineCalendarFile = *lineCalendarFile
		case "policy":
			cmdConfig.Policy = *policy
		case "parallel":
			cmdConfig.Parallel = *parallel
		case "output":
			cmdConfig.OutputDir = *outputDir
		case "format":
			cmdConfig.Format = *format
		case "precision":
			cmdConfig.Precision = int32(*precision)
		}
	})

	return commands.NewPlanCommand(cmdConfig, log).Execute(ctx)
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("capplan generate", flag.ExitOnError)
	var (
		products    = fs.Int("products", 0, "Number of products")
		lines       = fs.Int("lines", 0, "Number of production lines")
		months      = fs.Int("months", 0, "Number of months in the horizon")
		start       = fs.String("start", "2025-01", "First month (YYYY-MM)")
		load        = fs.Float64("load", 1.0, "Demand as a multiple of capacity")
		eligibility = fs.Float64("eligibility", 0.5, "Probability that a line can make a product")
		outputDir   = fs.String("output", "", "Output directory for generated files")
		seed        = fs.Int64("seed", 0, "Random seed for reproducible generation")
		verbose     = fs.Bool("verbose", false, "Enable verbose output")
		help        = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := commands.NewGenerateCommand(commands.GenerateConfig{
		Products:    *products,
		Lines:       *lines,
		Months:      *months,
		StartMonth:  *start,
		Load:        *load,
		Eligibility: *eligibility,
		OutputDir:   *outputDir,
		Seed:        *seed,
		Help:        *help,
		Verbose:     *verbose,
	})
	return cmd.Execute(ctx)
}
