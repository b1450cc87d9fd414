// Package capacity converts per-line production rates and the resolved
// calendar into per line-month time budgets.
package capacity

import (
	"math"
	"slices"
	"sort"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/calendar"
)

// Model is the static capacity of every line for a planning horizon.
// A line's time in a month is shared by all products, so the binding
// constraint per line-month is total time, not units.
type Model struct {
	calendar *calendar.Calendar
	lines    []entities.LineID
	rates    map[entities.LineID]map[entities.ProductID]float64
	eligible map[entities.ProductID][]entities.LineID
}

// Build validates the rate table and derives eligibility lists. Lines may
// be declared without any rate; they keep a time budget but produce nothing.
func Build(
	lines []entities.LineID,
	rates []entities.RateEntry,
	cal *calendar.Calendar,
) (*Model, error) {
	m := &Model{
		calendar: cal,
		rates:    make(map[entities.LineID]map[entities.ProductID]float64),
		eligible: make(map[entities.ProductID][]entities.LineID),
	}

	for _, line := range lines {
		if line == "" {
			return nil, entities.NewConfigError("rates", "", "empty line identifier")
		}
		if _, ok := m.rates[line]; !ok {
			m.rates[line] = make(map[entities.ProductID]float64)
		}
	}

	for _, r := range rates {
		key := string(r.Line) + "/" + string(r.Product)
		if r.Line == "" || r.Product == "" {
			return nil, entities.NewConfigError("rates", key, "line and product are required")
		}
		if math.IsNaN(r.Rate) || math.IsInf(r.Rate, 0) {
			return nil, entities.NewConfigError("rates", key, "rate must be finite, got %v", r.Rate)
		}
		if r.Rate <= 0 {
			return nil, entities.NewConfigError("rates", key, "rate must be positive, got %v", r.Rate)
		}
		products, ok := m.rates[r.Line]
		if !ok {
			products = make(map[entities.ProductID]float64)
			m.rates[r.Line] = products
		}
		if _, dup := products[r.Product]; dup {
			return nil, entities.NewConfigError("rates", key, "duplicate rate")
		}
		products[r.Product] = r.Rate
		m.eligible[r.Product] = append(m.eligible[r.Product], r.Line)
	}

	for _, line := range cal.OverriddenLines() {
		if _, ok := m.rates[line]; !ok {
			return nil, entities.NewConfigError("line calendar", string(line), "unknown production line")
		}
	}

	m.lines = make([]entities.LineID, 0, len(m.rates))
	for line := range m.rates {
		m.lines = append(m.lines, line)
	}
	slices.Sort(m.lines)

	// fastest line first, ties by identifier
	for product, eligible := range m.eligible {
		sort.Slice(eligible, func(i, j int) bool {
			ri, rj := m.rates[eligible[i]][product], m.rates[eligible[j]][product]
			if ri != rj {
				return ri > rj
			}
			return eligible[i] < eligible[j]
		})
	}

	return m, nil
}

// Horizon returns the ordered planning months
func (m *Model) Horizon() entities.Horizon {
	return m.calendar.Horizon()
}

// Lines returns every known line sorted by identifier
func (m *Model) Lines() []entities.LineID {
	return slices.Clone(m.lines)
}

// Budget returns the available time of a line in a month
func (m *Model) Budget(line entities.LineID, month entities.Month) float64 {
	return m.calendar.AvailableFor(line, month)
}

// Rate returns the production rate of a line for a product. ok is false
// when the line cannot produce the product.
func (m *Model) Rate(line entities.LineID, product entities.ProductID) (rate float64, ok bool) {
	rate, ok = m.rates[line][product]
	return rate, ok
}

// EligibleLines returns the lines able to produce a product, fastest first
func (m *Model) EligibleLines(product entities.ProductID) []entities.LineID {
	return slices.Clone(m.eligible[product])
}

// MaxUnits is the quantity of a product a line could make in a month if it
// spent all of its time on that product alone.
func (m *Model) MaxUnits(line entities.LineID, month entities.Month, product entities.ProductID) float64 {
	rate, ok := m.Rate(line, product)
	if !ok {
		return 0
	}
	return m.Budget(line, month) * rate
}

// Products returns every product with at least one eligible line, sorted
func (m *Model) Products() []entities.ProductID {
	products := make([]entities.ProductID, 0, len(m.eligible))
	for p := range m.eligible {
		products = append(products, p)
	}
	slices.Sort(products)
	return products
}

// ProductsFor returns the products a line can make, sorted
func (m *Model) ProductsFor(line entities.LineID) []entities.ProductID {
	products := make([]entities.ProductID, 0, len(m.rates[line]))
	for p := range m.rates[line] {
		products = append(products, p)
	}
	slices.Sort(products)
	return products
}
