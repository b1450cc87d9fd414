package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_ReadDemand_Long(t *testing.T) {
	loader := NewLoader()

	table, err := loader.ReadDemand(strings.NewReader("Product,Month,Quantity\nP1,2025-01,100\nP1, 2025-02 ,50.5\n"))
	require.NoError(t, err)

	assert.Equal(t, []entities.DemandEntry{
		{Product: "P1", Month: "2025-01", Quantity: 100},
		{Product: "P1", Month: "2025-02", Quantity: 50.5},
	}, table.Entries)
	assert.Empty(t, table.Priorities)
}

func TestLoader_ReadDemand_Wide(t *testing.T) {
	loader := NewLoader()

	input := "product,priority,2025-01,2025-02\nP1,1,100,\nP2,,20,30\n"
	table, err := loader.ReadDemand(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []entities.DemandEntry{
		{Product: "P1", Month: "2025-01", Quantity: 100},
		{Product: "P1", Month: "2025-02", Quantity: 0},
		{Product: "P2", Month: "2025-01", Quantity: 20},
		{Product: "P2", Month: "2025-02", Quantity: 30},
	}, table.Entries)
	assert.Equal(t, entities.Priorities{"P1": 1}, table.Priorities)
}

func TestLoader_ReadDemand_Errors(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"header only", "product,month,quantity\n", "at least one data row"},
		{"bad header", "item,month,quantity\nP1,2025-01,1\n", "must start with 'product'"},
		{"bad quantity", "product,month,quantity\nP1,2025-01,1\nP1,2025-02,abc\n", "row 3"},
		{"short row", "product,2025-01,2025-02\nP1,1\n", "row 2: expected 3 columns"},
		{"bad priority", "product,priority,2025-01\nP1,high,1\n", "invalid priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.ReadDemand(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_ReadRates_Layouts(t *testing.T) {
	loader := NewLoader()

	t.Run("line major", func(t *testing.T) {
		table, err := loader.ReadRates(strings.NewReader("line,P1,P2\nL1,10,\nL2,0,5\nL3,,\n"))
		require.NoError(t, err)

		assert.Equal(t, []entities.LineID{"L1", "L2", "L3"}, table.Lines)
		assert.Equal(t, []entities.RateEntry{
			{Line: "L1", Product: "P1", Rate: 10},
			{Line: "L2", Product: "P2", Rate: 5},
		}, table.Entries)
	})

	t.Run("product major", func(t *testing.T) {
		table, err := loader.ReadRates(strings.NewReader("Product,Production Line 1,Production Line 2\nP1,10,2.5\n"))
		require.NoError(t, err)

		assert.Equal(t, []entities.LineID{"Production Line 1", "Production Line 2"}, table.Lines)
		assert.Equal(t, []entities.RateEntry{
			{Line: "Production Line 1", Product: "P1", Rate: 10},
			{Line: "Production Line 2", Product: "P1", Rate: 2.5},
		}, table.Entries)
	})

	t.Run("long", func(t *testing.T) {
		table, err := loader.ReadRates(strings.NewReader("line,product,rate\nL1,P1,4\nL2,P1,0\n"))
		require.NoError(t, err)

		assert.Equal(t, []entities.LineID{"L1", "L2"}, table.Lines)
		assert.Equal(t, []entities.RateEntry{{Line: "L1", Product: "P1", Rate: 4}}, table.Entries)
	})

	t.Run("negative rate is kept for validation", func(t *testing.T) {
		table, err := loader.ReadRates(strings.NewReader("line,P1\nL1,-3\n"))
		require.NoError(t, err)
		assert.Equal(t, []entities.RateEntry{{Line: "L1", Product: "P1", Rate: -3}}, table.Entries)
	})

	t.Run("bad number", func(t *testing.T) {
		_, err := loader.ReadRates(strings.NewReader("line,P1\nL1,fast\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rates CSV row 2, column P1")
	})

	t.Run("bad header", func(t *testing.T) {
		_, err := loader.ReadRates(strings.NewReader("machine,P1\nL1,1\n"))
		require.Error(t, err)
	})
}

func TestLoader_ReadCalendar(t *testing.T) {
	loader := NewLoader()

	entries, err := loader.ReadCalendar(strings.NewReader("month,available_time\n2025-01,160\n2025-02,152\n"))
	require.NoError(t, err)
	assert.Equal(t, []entities.CalendarEntry{
		{Month: "2025-01", AvailableTime: 160},
		{Month: "2025-02", AvailableTime: 152},
	}, entries)

	entries, err = loader.ReadCalendar(strings.NewReader("month,working_days,hours_per_day\n2025-01,20,8\n"))
	require.NoError(t, err)
	assert.Equal(t, []entities.CalendarEntry{{Month: "2025-01", AvailableTime: 160}}, entries)

	_, err = loader.ReadCalendar(strings.NewReader("month,hours\n2025-01,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header mismatch")

	_, err = loader.ReadCalendar(strings.NewReader("month,available_time\n2025-01,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar CSV row 2")

	shiftTests := []struct {
		name    string
		row     string
		wantErr string
	}{
		{"both negative", "2025-02,-20,-8", "working_days must be non-negative"},
		{"negative days times zero hours", "2025-02,-20,0", "working_days must be non-negative"},
		{"negative hours", "2025-02,20,-8", "hours_per_day must be non-negative"},
	}
	for _, tt := range shiftTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.ReadCalendar(strings.NewReader("month,working_days,hours_per_day\n2025-01,20,8\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "calendar CSV row 3")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_LoadLineCalendar(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "line_calendar.csv", "line,month,available_time\nL1,2025-01,80\n")

	entries, err := NewLoader().LoadLineCalendar(path)
	require.NoError(t, err)
	assert.Equal(t, []entities.LineCalendarEntry{{Line: "L1", Month: "2025-01", AvailableTime: 80}}, entries)

	_, err = NewLoader().LoadLineCalendar(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open line calendar file")
}

func TestLoader_LoadScenario_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultDemandFile, "product,month,quantity\nP,M1,100\n")
	writeFile(t, dir, DefaultRatesFile, "line,P\nL,10\n")
	writeFile(t, dir, DefaultCalendarFile, "month,available_time\nM1,8\n")

	scenario, err := NewLoader().LoadScenario(dir, Files{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), scenario.Name)
	assert.Empty(t, scenario.Files.LineCalendar)
	assert.Equal(t, []entities.LineID{"L"}, scenario.Input.Lines)
	assert.Len(t, scenario.Input.Demand, 1)
	assert.Len(t, scenario.Input.Rates, 1)
	assert.Len(t, scenario.Input.Calendar, 1)
	assert.Empty(t, scenario.Input.LineCalendars)
}

func TestLoader_LoadScenario_Manifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestFile, `name: q1-baseline
demand: orders.csv
line_calendar: shutdowns.csv
priorities:
  P2: 1
  P1: 5
`)
	writeFile(t, dir, "orders.csv", "product,priority,M1\nP1,2,10\nP2,,10\n")
	writeFile(t, dir, DefaultRatesFile, "line,P1,P2\nL,1,1\n")
	writeFile(t, dir, DefaultCalendarFile, "month,available_time\nM1,8\n")
	writeFile(t, dir, "shutdowns.csv", "line,month,available_time\nL,M1,0\n")

	scenario, err := NewLoader().LoadScenario(dir, Files{})
	require.NoError(t, err)

	assert.Equal(t, "q1-baseline", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "orders.csv"), scenario.Files.Demand)
	assert.Equal(t, filepath.Join(dir, "shutdowns.csv"), scenario.Files.LineCalendar)
	// the demand table's own priority wins over the manifest
	assert.Equal(t, entities.Priorities{"P1": 2, "P2": 1}, scenario.Input.Priorities)
	assert.Len(t, scenario.Input.LineCalendars, 1)
}

func TestLoader_ResolveFiles(t *testing.T) {
	loader := NewLoader()

	_, _, err := loader.ResolveFiles("", Files{Demand: "d.csv"})
	require.Error(t, err)

	files, _, err := loader.ResolveFiles("", Files{Demand: "d.csv", Rates: "r.csv", Calendar: "c.csv"})
	require.NoError(t, err)
	assert.Equal(t, Files{Demand: "d.csv", Rates: "r.csv", Calendar: "c.csv"}, files)

	dir := t.TempDir()
	writeFile(t, dir, ManifestFile, "name: [unterminated\n")
	_, _, err = loader.ResolveFiles(dir, Files{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}
