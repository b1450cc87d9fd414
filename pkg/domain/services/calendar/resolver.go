// Package calendar resolves the month-indexed working-time calendar into
// available time per month, with optional per-line overrides.
package calendar

import (
	"math"
	"slices"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Calendar is the resolved working-time calendar for a planning run
type Calendar struct {
	horizon   entities.Horizon
	global    map[entities.Month]float64
	overrides map[entities.LineID]map[entities.Month]float64
}

// Resolve validates the calendar table and any per-line overrides.
// The month order of entries becomes the canonical horizon order.
func Resolve(
	entries []entities.CalendarEntry,
	overrides []entities.LineCalendarEntry,
) (*Calendar, error) {
	cal := &Calendar{
		horizon:   make(entities.Horizon, 0, len(entries)),
		global:    make(map[entities.Month]float64, len(entries)),
		overrides: make(map[entities.LineID]map[entities.Month]float64),
	}

	for _, entry := range entries {
		if entry.Month == "" {
			return nil, entities.NewConfigError("calendar", "", "empty month name")
		}
		if _, dup := cal.global[entry.Month]; dup {
			return nil, entities.NewConfigError("calendar", string(entry.Month), "duplicate month")
		}
		if err := checkTime("calendar", string(entry.Month), entry.AvailableTime); err != nil {
			return nil, err
		}
		cal.horizon = append(cal.horizon, entry.Month)
		cal.global[entry.Month] = entry.AvailableTime
	}

	for _, o := range overrides {
		key := string(o.Line) + "/" + string(o.Month)
		if o.Line == "" {
			return nil, entities.NewConfigError("line calendar", key, "empty line identifier")
		}
		if _, ok := cal.global[o.Month]; !ok {
			return nil, entities.NewConfigError("line calendar", key, "month not in calendar")
		}
		if err := checkTime("line calendar", key, o.AvailableTime); err != nil {
			return nil, err
		}
		months, ok := cal.overrides[o.Line]
		if !ok {
			months = make(map[entities.Month]float64)
			cal.overrides[o.Line] = months
		}
		if _, dup := months[o.Month]; dup {
			return nil, entities.NewConfigError("line calendar", key, "duplicate override")
		}
		months[o.Month] = o.AvailableTime
	}

	return cal, nil
}

func checkTime(field, key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return entities.NewConfigError(field, key, "available time must be finite, got %v", v)
	}
	if v < 0 {
		return entities.NewConfigError(field, key, "available time must be non-negative, got %v", v)
	}
	return nil
}

// Horizon returns a copy of the ordered planning months
func (c *Calendar) Horizon() entities.Horizon {
	out := make(entities.Horizon, len(c.horizon))
	copy(out, c.horizon)
	return out
}

// Contains reports whether the month is part of the horizon
func (c *Calendar) Contains(m entities.Month) bool {
	_, ok := c.global[m]
	return ok
}

// Available returns the working time of a month from the global calendar
func (c *Calendar) Available(m entities.Month) float64 {
	return c.global[m]
}

// AvailableFor returns the working time of a line in a month. A missing
// override falls back to the global calendar.
func (c *Calendar) AvailableFor(line entities.LineID, m entities.Month) float64 {
	if months, ok := c.overrides[line]; ok {
		if v, ok := months[m]; ok {
			return v
		}
	}
	return c.global[m]
}

// OverriddenLines returns the lines that carry at least one override
func (c *Calendar) OverriddenLines() []entities.LineID {
	lines := make([]entities.LineID, 0, len(c.overrides))
	for line := range c.overrides {
		lines = append(lines, line)
	}
	slices.Sort(lines)
	return lines
}
