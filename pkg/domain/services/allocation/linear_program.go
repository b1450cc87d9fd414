package allocation

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/services/capacity"
)

// priorityBias separates otherwise equal optima in favour of products
// served earlier in the priority order.
const priorityBias = 1e-6

// LinearProgram allocates each month by solving
//
//	maximise   Σ w[p]·x[p,l]
//	subject to Σ_p x[p,l] / rate[l,p] ≤ T[l]   for every line
//	           Σ_l x[p,l]             ≤ D[p]   for every product
//	           x ≥ 0
//
// with the gonum simplex solver. Slack columns form the initial basis.
type LinearProgram struct {
	tolerance float64
}

// NewLinearProgram creates an exact LP allocator
func NewLinearProgram(tolerance float64) *LinearProgram {
	return &LinearProgram{tolerance: tolerance}
}

// Policy returns PolicyLP
func (p *LinearProgram) Policy() Policy {
	return PolicyLP
}

type lpCell struct {
	product entities.ProductID
	line    entities.LineID
	rate    float64
}

// AllocateMonth solves the month's LP and books the solution through the
// same clamp the waterfall uses.
func (p *LinearProgram) AllocateMonth(
	model *capacity.Model,
	req MonthRequest,
) ([]entities.AllocationRecord, error) {
	var (
		cells    []lpCell
		lines    []entities.LineID
		lineRow  = make(map[entities.LineID]int)
		products []entities.ProductID
		prodRank = make(map[entities.ProductID]int)
	)

	for rank, product := range req.Order {
		if req.Demand[product] <= 0 {
			continue
		}
		added := false
		for _, line := range model.EligibleLines(product) {
			if model.Budget(line, req.Month) <= 0 {
				continue
			}
			rate, _ := model.Rate(line, product)
			if _, ok := lineRow[line]; !ok {
				lineRow[line] = len(lines)
				lines = append(lines, line)
			}
			cells = append(cells, lpCell{product: product, line: line, rate: rate})
			added = true
		}
		if added {
			prodRank[product] = rank
			products = append(products, product)
		}
	}

	if len(cells) == 0 {
		return nil, nil
	}

	nCells := len(cells)
	rows := len(lines) + len(products)
	cols := nCells + rows

	c := make([]float64, cols)
	b := make([]float64, rows)
	A := mat.NewDense(rows, cols, nil)

	prodRow := make(map[entities.ProductID]int, len(products))
	for i, product := range products {
		prodRow[product] = len(lines) + i
		b[len(lines)+i] = req.Demand[product]
	}
	for i, line := range lines {
		b[i] = model.Budget(line, req.Month)
	}

	order := float64(len(req.Order))
	for j, cell := range cells {
		weight := 1 + priorityBias*(order-float64(prodRank[cell.product]))/order
		c[j] = -weight
		A.Set(lineRow[cell.line], j, 1/cell.rate)
		A.Set(prodRow[cell.product], j, 1)
	}

	basic := make([]int, rows)
	for i := 0; i < rows; i++ {
		A.Set(i, nCells+i, 1)
		basic[i] = nCells + i
	}

	_, x, err := lp.Simplex(c, A, b, p.tolerance, basic)
	if err != nil {
		return nil, fmt.Errorf("%w: month %s: %v", ErrSolver, req.Month, err)
	}

	l := newLedger(model, req)
	for j, cell := range cells {
		if x[j] <= p.tolerance {
			continue
		}
		l.assign(cell.product, cell.line, x[j])
	}
	return l.allocated, nil
}
