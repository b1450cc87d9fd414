package entities

// LineID represents a unique production line identifier
type LineID string

// RateEntry declares that a line can produce a product at the given rate
// (units per unit of working time)
type RateEntry struct {
	Line    LineID    `json:"line"`
	Product ProductID `json:"product"`
	Rate    float64   `json:"rate"`
}

// CalendarEntry is the global available working time for a month
type CalendarEntry struct {
	Month         Month   `json:"month"`
	AvailableTime float64 `json:"available_time"`
}

// LineCalendarEntry overrides the global calendar for a single line and month
type LineCalendarEntry struct {
	Line          LineID  `json:"line"`
	Month         Month   `json:"month"`
	AvailableTime float64 `json:"available_time"`
}
