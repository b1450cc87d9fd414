package api

import (
	"maps"
	"slices"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// DemandRowDTO is one row of the editable demand grid
type DemandRowDTO struct {
	Product    string             `json:"product"`
	Priority   *int               `json:"priority,omitempty"`
	Quantities map[string]float64 `json:"quantities"`
}

// RateDTO is one eligible (line, product) pair
type RateDTO struct {
	Line    string  `json:"line"`
	Product string  `json:"product"`
	Rate    float64 `json:"rate"`
}

// CalendarDTO is the available time of a month, optionally for one line
type CalendarDTO struct {
	Line          string  `json:"line,omitempty"`
	Month         string  `json:"month"`
	AvailableTime float64 `json:"available_time"`
}

// BaselineResponse is the baseline the dashboard starts from
type BaselineResponse struct {
	Months        []string       `json:"months"`
	Lines         []string       `json:"lines"`
	Rates         []RateDTO      `json:"rates"`
	Calendar      []CalendarDTO  `json:"calendar"`
	LineCalendars []CalendarDTO  `json:"line_calendars"`
	Demand        []DemandRowDTO `json:"demand"`
}

// PlanRequest carries an edited demand grid. The grid replaces the
// baseline demand wholesale, even when empty; only a request without a
// demand key plans the baseline demand.
type PlanRequest struct {
	Policy string         `json:"policy,omitempty"`
	Demand []DemandRowDTO `json:"demand"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Baseline bool   `json:"baseline"`
	Policy   string `json:"policy"`
}

// toDemand flattens the grid to demand entries and declared priorities.
// Months are emitted in the order of months, then any others sorted. A
// named row without quantities demands zero in every month. The entries are
// nil only when the request has no grid.
func (r PlanRequest) toDemand(months []entities.Month) ([]entities.DemandEntry, entities.Priorities) {
	if r.Demand == nil {
		return nil, nil
	}
	entries := []entities.DemandEntry{}
	var priorities entities.Priorities

	for _, row := range r.Demand {
		product := entities.ProductID(row.Product)
		if len(row.Quantities) == 0 {
			if product == "" {
				continue
			}
			for _, m := range months {
				entries = append(entries, entities.DemandEntry{Product: product, Month: m})
			}
		}
		if row.Priority != nil {
			if priorities == nil {
				priorities = make(entities.Priorities)
			}
			priorities[product] = *row.Priority
		}

		seen := make(map[string]bool, len(row.Quantities))
		for _, m := range months {
			if q, ok := row.Quantities[string(m)]; ok {
				entries = append(entries, entities.DemandEntry{Product: product, Month: m, Quantity: q})
				seen[string(m)] = true
			}
		}
		for _, m := range slices.Sorted(maps.Keys(row.Quantities)) {
			if !seen[m] {
				entries = append(entries, entities.DemandEntry{Product: product, Month: entities.Month(m), Quantity: row.Quantities[m]})
			}
		}
	}

	return entries, priorities
}

// toBaselineResponse pivots a baseline input into the dashboard's shape
func toBaselineResponse(input entities.PlanInput) BaselineResponse {
	resp := BaselineResponse{
		Months:        make([]string, 0, len(input.Calendar)),
		Lines:         make([]string, 0, len(input.Lines)),
		Rates:         make([]RateDTO, 0, len(input.Rates)),
		Calendar:      make([]CalendarDTO, 0, len(input.Calendar)),
		LineCalendars: make([]CalendarDTO, 0, len(input.LineCalendars)),
		Demand:        []DemandRowDTO{},
	}

	for _, c := range input.Calendar {
		resp.Months = append(resp.Months, string(c.Month))
		resp.Calendar = append(resp.Calendar, CalendarDTO{Month: string(c.Month), AvailableTime: c.AvailableTime})
	}
	for _, l := range input.Lines {
		resp.Lines = append(resp.Lines, string(l))
	}
	for _, r := range input.Rates {
		resp.Rates = append(resp.Rates, RateDTO{Line: string(r.Line), Product: string(r.Product), Rate: r.Rate})
	}
	for _, o := range input.LineCalendars {
		resp.LineCalendars = append(resp.LineCalendars, CalendarDTO{Line: string(o.Line), Month: string(o.Month), AvailableTime: o.AvailableTime})
	}

	rows := make(map[entities.ProductID]int)
	for _, d := range input.Demand {
		i, ok := rows[d.Product]
		if !ok {
			i = len(resp.Demand)
			rows[d.Product] = i
			row := DemandRowDTO{Product: string(d.Product), Quantities: make(map[string]float64)}
			if p, ok := input.Priorities[d.Product]; ok {
				row.Priority = &p
			}
			resp.Demand = append(resp.Demand, row)
		}
		resp.Demand[i].Quantities[string(d.Month)] = d.Quantity
	}

	return resp
}
