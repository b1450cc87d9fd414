package calendar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

func TestResolve_PreservesInputOrder(t *testing.T) {
	cal, err := Resolve([]entities.CalendarEntry{
		{Month: "Mar", AvailableTime: 160},
		{Month: "Jan", AvailableTime: 168},
		{Month: "Feb", AvailableTime: 152},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, entities.Horizon{"Mar", "Jan", "Feb"}, cal.Horizon())
	assert.Equal(t, 168.0, cal.Available("Jan"))
	assert.True(t, cal.Contains("Feb"))
	assert.False(t, cal.Contains("Apr"))
}

func TestResolve_LineOverrideDefaultsToGlobal(t *testing.T) {
	cal, err := Resolve(
		[]entities.CalendarEntry{
			{Month: "M1", AvailableTime: 8},
			{Month: "M2", AvailableTime: 8},
		},
		[]entities.LineCalendarEntry{
			{Line: "L1", Month: "M2", AvailableTime: 16},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, 8.0, cal.AvailableFor("L1", "M1"))
	assert.Equal(t, 16.0, cal.AvailableFor("L1", "M2"))
	assert.Equal(t, 8.0, cal.AvailableFor("L2", "M2"))
	assert.Equal(t, []entities.LineID{"L1"}, cal.OverriddenLines())
}

func TestResolve_ZeroTimeIsAllowed(t *testing.T) {
	cal, err := Resolve([]entities.CalendarEntry{{Month: "M1", AvailableTime: 0}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cal.Available("M1"))
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name      string
		entries   []entities.CalendarEntry
		overrides []entities.LineCalendarEntry
	}{
		{
			name: "duplicate_month",
			entries: []entities.CalendarEntry{
				{Month: "M1", AvailableTime: 8},
				{Month: "M1", AvailableTime: 9},
			},
		},
		{
			name:    "negative_time",
			entries: []entities.CalendarEntry{{Month: "M1", AvailableTime: -1}},
		},
		{
			name:    "nan_time",
			entries: []entities.CalendarEntry{{Month: "M1", AvailableTime: math.NaN()}},
		},
		{
			name:    "empty_month",
			entries: []entities.CalendarEntry{{Month: "", AvailableTime: 1}},
		},
		{
			name:      "override_unknown_month",
			entries:   []entities.CalendarEntry{{Month: "M1", AvailableTime: 8}},
			overrides: []entities.LineCalendarEntry{{Line: "L1", Month: "M9", AvailableTime: 8}},
		},
		{
			name:      "override_negative",
			entries:   []entities.CalendarEntry{{Month: "M1", AvailableTime: 8}},
			overrides: []entities.LineCalendarEntry{{Line: "L1", Month: "M1", AvailableTime: -2}},
		},
		{
			name:    "override_duplicate",
			entries: []entities.CalendarEntry{{Month: "M1", AvailableTime: 8}},
			overrides: []entities.LineCalendarEntry{
				{Line: "L1", Month: "M1", AvailableTime: 2},
				{Line: "L1", Month: "M1", AvailableTime: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.entries, tt.overrides)
			require.Error(t, err)
			assert.True(t, entities.IsConfigError(err), "expected ConfigError, got %v", err)
		})
	}
}
