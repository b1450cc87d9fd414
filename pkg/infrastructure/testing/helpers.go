package testing

import (
	"fmt"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
)

// BuildSingleLineScenario: one product, one line at 10 units/hour, 8 hours,
// demand 100. Expected: 80 allocated, fill rate 0.8, utilization 1.0.
func BuildSingleLineScenario() entities.PlanInput {
	return entities.PlanInput{
		Demand:   []entities.DemandEntry{{Product: "P", Month: "M1", Quantity: 100}},
		Rates:    []entities.RateEntry{{Line: "L", Product: "P", Rate: 10}},
		Calendar: []entities.CalendarEntry{{Month: "M1", AvailableTime: 8}},
	}
}

// BuildTwoLineScenario: L1 at 5/hour and L2 at 10/hour, 8 hours each,
// demand 200. Expected: L2 80, L1 40, fill rate 0.6.
func BuildTwoLineScenario() entities.PlanInput {
	return entities.PlanInput{
		Demand: []entities.DemandEntry{{Product: "P", Month: "M1", Quantity: 200}},
		Rates: []entities.RateEntry{
			{Line: "L1", Product: "P", Rate: 5},
			{Line: "L2", Product: "P", Rate: 10},
		},
		Calendar: []entities.CalendarEntry{{Month: "M1", AvailableTime: 8}},
	}
}

// BuildPlantScenario builds a small plant over a quarter: four lines with
// shared and dedicated products, a maintenance shutdown on one line, a
// ranked product, a line nobody can use and a product nobody can make.
func BuildPlantScenario() entities.PlanInput {
	months := []entities.Month{"2025-01", "2025-02", "2025-03"}

	in := entities.PlanInput{
		Lines: []entities.LineID{"PRESS_4"},
		Calendar: []entities.CalendarEntry{
			{Month: months[0], AvailableTime: 168},
			{Month: months[1], AvailableTime: 152},
			{Month: months[2], AvailableTime: 176},
		},
		LineCalendars: []entities.LineCalendarEntry{
			{Line: "PRESS_2", Month: months[1], AvailableTime: 0},
		},
		Priorities: entities.Priorities{"HINGE": 1},
		Rates: []entities.RateEntry{
			{Line: "PRESS_1", Product: "BRACKET", Rate: 12},
			{Line: "PRESS_1", Product: "HINGE", Rate: 8},
			{Line: "PRESS_2", Product: "BRACKET", Rate: 6},
			{Line: "PRESS_2", Product: "PANEL", Rate: 4},
			{Line: "PRESS_3", Product: "PANEL", Rate: 5},
			{Line: "PRESS_3", Product: "HINGE", Rate: 10},
		},
	}

	quantities := map[entities.ProductID][]float64{
		"BRACKET": {1800, 2600, 1200},
		"HINGE":   {900, 1400, 700},
		"PANEL":   {600, 900, 1100},
		"CLIP":    {50, 0, 50},
	}
	for _, product := range []entities.ProductID{"BRACKET", "HINGE", "PANEL", "CLIP"} {
		for i, month := range months {
			in.Demand = append(in.Demand, entities.DemandEntry{
				Product:  product,
				Month:    month,
				Quantity: quantities[product][i],
			})
		}
	}

	return in
}

// BuildGridScenario builds a deterministic lines × products × months input
// with roughly a third of the line/product pairs ineligible
func BuildGridScenario(lines, products, months int) entities.PlanInput {
	var in entities.PlanInput
	for m := 0; m < months; m++ {
		month := entities.Month(fmt.Sprintf("%d-%02d", 2025+m/12, m%12+1))
		in.Calendar = append(in.Calendar, entities.CalendarEntry{Month: month, AvailableTime: float64(120 + 10*(m%4))})
		for p := 0; p < products; p++ {
			in.Demand = append(in.Demand, entities.DemandEntry{
				Product:  entities.ProductID(fmt.Sprintf("P%02d", p)),
				Month:    month,
				Quantity: float64((p*37+m*11)%90) * 10,
			})
		}
	}
	for l := 0; l < lines; l++ {
		for p := 0; p < products; p++ {
			if (l+p)%3 == 0 {
				continue
			}
			in.Rates = append(in.Rates, entities.RateEntry{
				Line:    entities.LineID(fmt.Sprintf("LINE_%d", l)),
				Product: entities.ProductID(fmt.Sprintf("P%02d", p)),
				Rate:    float64(1 + (l*7+p*3)%9),
			})
		}
	}
	return in
}

// BuildBaselineRepository returns a repository holding input as baseline
func BuildBaselineRepository(input entities.PlanInput) *memory.BaselineRepository {
	repo := memory.NewBaselineRepository()
	if err := repo.LoadBaseline(input); err != nil {
		panic(err)
	}
	return repo
}
