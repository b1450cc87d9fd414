package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/allocation"
	"github.com/vsinha/capplan/pkg/infrastructure/logger"
	"github.com/vsinha/capplan/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()
	log := logger.New(logger.Config{Level: "warn", Pretty: true})

	planner, err := services.NewPlanningService(services.PlanningOptions{Policy: allocation.PolicyGreedy}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// One line at 10 units/hour with 8 hours can make 80 of the 100 ordered
	single := entities.PlanInput{
		Demand:   []entities.DemandEntry{{Product: "BRACKET", Month: "2025-01", Quantity: 100}},
		Rates:    []entities.RateEntry{{Line: "LINE_A", Product: "BRACKET", Rate: 10}},
		Calendar: []entities.CalendarEntry{{Month: "2025-01", AvailableTime: 8}},
	}
	run(ctx, planner, "Single line", single)

	// The faster line is filled first, the slower one takes the remainder
	twoLines := entities.PlanInput{
		Demand: []entities.DemandEntry{{Product: "HOUSING", Month: "2025-01", Quantity: 200}},
		Rates: []entities.RateEntry{
			{Line: "LINE_SLOW", Product: "HOUSING", Rate: 5},
			{Line: "LINE_FAST", Product: "HOUSING", Rate: 10},
		},
		Calendar: []entities.CalendarEntry{{Month: "2025-01", AvailableTime: 8}},
	}
	run(ctx, planner, "Two lines", twoLines)

	// Demand outside the calendar is rejected before anything is allocated
	badMonth := single
	badMonth.Demand = []entities.DemandEntry{{Product: "BRACKET", Month: "2025-02", Quantity: 10}}
	_, err = planner.Plan(ctx, badMonth)
	var cfgErr *entities.ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Printf("=== Unknown month ===\nrejected: %v\n", cfgErr)
	}
}

func run(ctx context.Context, planner *services.PlanningService, title string, input entities.PlanInput) {
	result, err := planner.Plan(ctx, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", title, err)
		return
	}

	fmt.Printf("=== %s ===\n", title)
	fmt.Println(result.GetSummary())
	for _, a := range result.Allocations {
		fmt.Printf("  %-8s -> %-10s %s: %.0f units\n", a.Product, a.Line, a.Month, a.Quantity)
	}
	if err := output.WriteTable(os.Stdout, result, output.TableLineUtilization, 2); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", title, err)
	}
	fmt.Println()
}
