package entities

// ProductID represents a unique product identifier
type ProductID string

// DemandEntry represents demand for a product in a month
type DemandEntry struct {
	Product  ProductID `json:"product"`
	Month    Month     `json:"month"`
	Quantity float64   `json:"quantity"`
}

// Priorities holds declared product priorities. Lower values are served first.
type Priorities map[ProductID]int
