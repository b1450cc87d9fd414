// Package allocation assigns monthly demand to production lines.
//
// Two policies are available. The greedy waterfall serves products in a
// deterministic priority order and fills each product from its fastest
// eligible line down. The linear-program policy maximises the total units
// allocated in a month. Both respect the same two hard constraints: a line
// never consumes more than its available time, and a product never receives
// more than its demand. Months are independent; nothing carries over.
package allocation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/capacity"
)

// Policy selects the allocation algorithm
type Policy string

const (
	PolicyGreedy Policy = "greedy"
	PolicyLP     Policy = "lp"
)

// DefaultLPTolerance is the simplex tolerance used when none is configured
const DefaultLPTolerance = 1e-10

// ErrSolver is returned when the linear program cannot be solved
var ErrSolver = errors.New("allocation solver failed")

// ParsePolicy parses a policy name, case-insensitively
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "greedy", "waterfall":
		return PolicyGreedy, nil
	case "lp", "linear", "exact":
		return PolicyLP, nil
	default:
		return "", entities.NewConfigError("engine", s, "unknown allocation policy (expected greedy or lp)")
	}
}

// MonthRequest is the demand snapshot for a single month
type MonthRequest struct {
	Month  entities.Month
	Demand map[entities.ProductID]float64
	Order  []entities.ProductID
}

// Allocator allocates one month of demand against the capacity model
type Allocator interface {
	Policy() Policy
	AllocateMonth(model *capacity.Model, req MonthRequest) ([]entities.AllocationRecord, error)
}

// Options tune allocator construction
type Options struct {
	LPTolerance float64
}

// New creates the allocator for a policy
func New(policy Policy, opts Options) (Allocator, error) {
	switch policy {
	case PolicyGreedy:
		return NewWaterfall(), nil
	case PolicyLP:
		tol := opts.LPTolerance
		if tol <= 0 {
			tol = DefaultLPTolerance
		}
		return NewLinearProgram(tol), nil
	default:
		return nil, fmt.Errorf("unsupported allocation policy: %s", policy)
	}
}

// ledger tracks remaining line time and unmet demand inside one month.
// Every quantity is clamped through it so both hard constraints hold exactly.
type ledger struct {
	month     entities.Month
	model     *capacity.Model
	time      map[entities.LineID]float64
	demand    map[entities.ProductID]float64
	allocated []entities.AllocationRecord
}

func newLedger(model *capacity.Model, req MonthRequest) *ledger {
	l := &ledger{
		month:  req.Month,
		model:  model,
		time:   make(map[entities.LineID]float64),
		demand: make(map[entities.ProductID]float64, len(req.Demand)),
	}
	for _, line := range model.Lines() {
		l.time[line] = model.Budget(line, req.Month)
	}
	for p, q := range req.Demand {
		l.demand[p] = q
	}
	return l
}

// assign books up to want units of product on line and returns the amount booked
func (l *ledger) assign(product entities.ProductID, line entities.LineID, want float64) float64 {
	rate, ok := l.model.Rate(line, product)
	if !ok || want <= 0 {
		return 0
	}
	need := l.demand[product]
	avail := l.time[line]
	if need <= 0 || avail <= 0 {
		return 0
	}

	q := min(want, need)
	capUnits := avail * rate
	if q >= capUnits {
		// capacity-limited: spend exactly the remaining time
		q = capUnits
		l.time[line] = 0
	} else {
		l.time[line] = max(0, avail-q/rate)
	}
	if q >= need {
		q = need
		l.demand[product] = 0
	} else {
		l.demand[product] = need - q
	}
	if q <= 0 {
		return 0
	}

	l.allocated = append(l.allocated, entities.AllocationRecord{
		Product:  product,
		Line:     line,
		Month:    l.month,
		Quantity: q,
	})
	return q
}
