package dto

import (
	"fmt"
	"time"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// PlanResult contains the complete output of a planning run. The four
// tables are a pure function of the input; RunID and GeneratedAt identify
// the run only.
type PlanResult struct {
	RunID       string                       `json:"run_id"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Allocations []entities.AllocationRecord  `json:"allocations"`
	Utilization []entities.UtilizationRecord `json:"utilization"`
	FillRates   []entities.FillRateRecord    `json:"fill_rates"`
	Shortfalls  []entities.ShortfallRecord   `json:"shortfalls"`
	Metadata    entities.Metadata            `json:"metadata"`
	Duration    time.Duration                `json:"-"`
}

// FillRate looks up the fill rate of a product in a month
func (r *PlanResult) FillRate(product entities.ProductID, month entities.Month) (float64, bool) {
	for _, fr := range r.FillRates {
		if fr.Product == product && fr.Month == month {
			return fr.FillRate, true
		}
	}
	return 0, false
}

// UtilizationOf looks up the utilization of a line in a month
func (r *PlanResult) UtilizationOf(line entities.LineID, month entities.Month) (float64, bool) {
	for _, u := range r.Utilization {
		if u.Line == line && u.Month == month {
			return u.Utilization, true
		}
	}
	return 0, false
}

// Allocated sums the quantity of a product placed on a line in a month
func (r *PlanResult) Allocated(product entities.ProductID, line entities.LineID, month entities.Month) float64 {
	var total float64
	for _, a := range r.Allocations {
		if a.Product == product && a.Line == line && a.Month == month {
			total += a.Quantity
		}
	}
	return total
}

// ShortfallCount returns the number of product-months with unmet demand
func (r *PlanResult) ShortfallCount() int {
	n := 0
	for _, s := range r.Shortfalls {
		if s.Shortfall > 0 {
			n++
		}
	}
	return n
}

// GetSummary returns a one-line summary of the run
func (r *PlanResult) GetSummary() string {
	m := r.Metadata
	return fmt.Sprintf("%d months, %d lines, %d products: allocated %.2f of %.2f (fill rate %.1f%%), %d short product-months",
		len(m.Horizon), len(m.Lines), len(m.Products),
		m.TotalAllocated, m.TotalDemand, m.OverallFillRate*100, r.ShortfallCount())
}
