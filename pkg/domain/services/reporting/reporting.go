// Package reporting derives utilization, fill rate and shortfall tables
// from an allocation. Every function here is pure.
package reporting

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/capacity"
)

// DemandIndex is demand keyed by month then product. Missing pairs are zero.
type DemandIndex map[entities.Month]map[entities.ProductID]float64

// Get returns the demand for a product in a month
func (d DemandIndex) Get(m entities.Month, p entities.ProductID) float64 {
	return d[m][p]
}

// Report holds the derived tables of a planning run
type Report struct {
	Utilization     []entities.UtilizationRecord
	FillRates       []entities.FillRateRecord
	Shortfalls      []entities.ShortfallRecord
	TotalDemand     float64
	TotalAllocated  float64
	TotalShortfall  float64
	OverallFillRate float64
}

type lineMonth struct {
	line  entities.LineID
	month entities.Month
}

type productMonth struct {
	product entities.ProductID
	month   entities.Month
}

// Build produces one utilization row per line-month and one fill-rate and
// shortfall row per product-month, including zero rows.
func Build(
	model *capacity.Model,
	products []entities.ProductID,
	demand DemandIndex,
	allocations []entities.AllocationRecord,
) (*Report, error) {
	horizon := model.Horizon()
	consumed := make(map[lineMonth]float64)
	allocated := make(map[productMonth]float64)

	for _, a := range allocations {
		rate, ok := model.Rate(a.Line, a.Product)
		if !ok {
			return nil, fmt.Errorf("allocation of %s to line %s without a rate", a.Product, a.Line)
		}
		consumed[lineMonth{a.Line, a.Month}] += a.Quantity / rate
		allocated[productMonth{a.Product, a.Month}] += a.Quantity
	}

	report := &Report{}

	for _, line := range model.Lines() {
		for _, month := range horizon {
			available := model.Budget(line, month)
			used := consumed[lineMonth{line, month}]
			report.Utilization = append(report.Utilization, entities.UtilizationRecord{
				Line:          line,
				Month:         month,
				AvailableTime: available,
				ConsumedTime:  used,
				Utilization:   Utilization(used, available),
			})
		}
	}

	var demands, fills, shorts []float64
	for _, product := range products {
		for _, month := range horizon {
			d := demand.Get(month, product)
			a := allocated[productMonth{product, month}]
			short := max(0, d-a)

			report.FillRates = append(report.FillRates, entities.FillRateRecord{
				Product:   product,
				Month:     month,
				Demand:    d,
				Allocated: a,
				FillRate:  FillRate(a, d),
			})
			report.Shortfalls = append(report.Shortfalls, entities.ShortfallRecord{
				Product:   product,
				Month:     month,
				Demand:    d,
				Allocated: a,
				Shortfall: short,
			})
			demands = append(demands, d)
			fills = append(fills, a)
			shorts = append(shorts, short)
		}
	}

	report.TotalDemand = floats.Sum(demands)
	report.TotalAllocated = floats.Sum(fills)
	report.TotalShortfall = floats.Sum(shorts)
	report.OverallFillRate = FillRate(report.TotalAllocated, report.TotalDemand)

	return report, nil
}

// Utilization is consumed/available clamped to [0, 1]; zero when the line has no time
func Utilization(consumed, available float64) float64 {
	if available <= 0 || consumed <= 0 {
		return 0
	}
	return min(1, consumed/available)
}

// FillRate is allocated/demand clamped to [0, 1]; 1.0 when nothing was demanded
func FillRate(allocated, demand float64) float64 {
	if demand <= 0 {
		return 1
	}
	if allocated <= 0 {
		return 0
	}
	return min(1, allocated/demand)
}

// Warnings lists non-fatal configuration findings in a stable order
func Warnings(
	model *capacity.Model,
	products []entities.ProductID,
	demand DemandIndex,
) []entities.Warning {
	var warnings []entities.Warning
	horizon := model.Horizon()

	inDemand := make(map[entities.ProductID]bool, len(products))
	for _, product := range products {
		inDemand[product] = true
		if len(model.EligibleLines(product)) > 0 {
			continue
		}
		var total float64
		for _, month := range horizon {
			total += demand.Get(month, product)
		}
		if total > 0 {
			warnings = append(warnings, entities.Warning{
				Code:    entities.WarnNoEligibleLine,
				Product: product,
				Message: fmt.Sprintf("product %s has demand but no line can produce it", product),
			})
		}
	}

	for _, line := range model.Lines() {
		if len(model.ProductsFor(line)) == 0 {
			warnings = append(warnings, entities.Warning{
				Code:    entities.WarnUnusedLine,
				Line:    line,
				Message: fmt.Sprintf("line %s has no rate for any product", line),
			})
		}
		var total float64
		for _, month := range horizon {
			total += model.Budget(line, month)
		}
		if len(horizon) > 0 && total == 0 {
			warnings = append(warnings, entities.Warning{
				Code:    entities.WarnZeroHorizonTime,
				Line:    line,
				Message: fmt.Sprintf("line %s has no available time in any month", line),
			})
		}
	}

	for _, product := range model.Products() {
		if !inDemand[product] {
			warnings = append(warnings, entities.Warning{
				Code:    entities.WarnRateWithoutDemand,
				Product: product,
				Message: fmt.Sprintf("rates declared for %s, which is absent from the demand table", product),
			})
		}
	}

	return warnings
}
