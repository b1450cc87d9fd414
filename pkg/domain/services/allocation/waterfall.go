package allocation

import (
	"math"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/capacity"
)

// Waterfall is the deterministic greedy allocator
type Waterfall struct{}

// NewWaterfall creates a greedy waterfall allocator
func NewWaterfall() *Waterfall {
	return &Waterfall{}
}

// Policy returns PolicyGreedy
func (w *Waterfall) Policy() Policy {
	return PolicyGreedy
}

// AllocateMonth serves products in req.Order. Each product takes as much as
// it can from its eligible lines, fastest first, until its demand is met or
// every eligible line is saturated. Residual demand is left as shortfall.
func (w *Waterfall) AllocateMonth(
	model *capacity.Model,
	req MonthRequest,
) ([]entities.AllocationRecord, error) {
	l := newLedger(model, req)

	for _, product := range req.Order {
		for _, line := range model.EligibleLines(product) {
			if l.demand[product] <= 0 {
				break
			}
			l.assign(product, line, math.Inf(1))
		}
	}

	return l.allocated, nil
}
