package allocation

import (
	"sort"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// OrderProducts returns the serving order for one month: declared priority
// ascending (products with a priority first), then descending demand, then
// identifier. The result is a total order, so output is reproducible.
func OrderProducts(
	demand map[entities.ProductID]float64,
	priorities entities.Priorities,
) []entities.ProductID {
	products := make([]entities.ProductID, 0, len(demand))
	for p := range demand {
		products = append(products, p)
	}

	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		pa, okA := priorities[a]
		pb, okB := priorities[b]
		if okA != okB {
			return okA
		}
		if okA && pa != pb {
			return pa < pb
		}
		if demand[a] != demand[b] {
			return demand[a] > demand[b]
		}
		return a < b
	})

	return products
}
