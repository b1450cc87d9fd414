package entities

// Month represents a named planning period such as "2025-01" or "Jan"
type Month string

// Horizon is the ordered sequence of planning months taken from the calendar
type Horizon []Month

// Index returns the position of a month in the horizon
func (h Horizon) Index(m Month) (int, bool) {
	for i, month := range h {
		if month == m {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether the month belongs to the horizon
func (h Horizon) Contains(m Month) bool {
	_, ok := h.Index(m)
	return ok
}

// Strings returns the month names in horizon order
func (h Horizon) Strings() []string {
	out := make([]string, len(h))
	for i, m := range h {
		out[i] = string(m)
	}
	return out
}
