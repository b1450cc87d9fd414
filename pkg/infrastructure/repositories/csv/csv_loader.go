package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Loader handles loading planning tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// DemandTable is a parsed demand table with any declared priorities
type DemandTable struct {
	Entries    []entities.DemandEntry
	Priorities entities.Priorities
}

// RateTable is a parsed rates table. Lines lists every line named in the
// file, including lines without any eligible product.
type RateTable struct {
	Lines   []entities.LineID
	Entries []entities.RateEntry
}

// LoadDemand loads a demand table from a CSV file
func (l *Loader) LoadDemand(filename string) (*DemandTable, error) {
	records, err := readFile(filename, "demand")
	if err != nil {
		return nil, err
	}
	return l.parseDemand(records)
}

// ReadDemand reads a demand table from r
func (l *Loader) ReadDemand(r io.Reader) (*DemandTable, error) {
	records, err := readAll(r, "demand")
	if err != nil {
		return nil, err
	}
	return l.parseDemand(records)
}

// parseDemand accepts either the long form
//
//	product,month,quantity
//
// or the wide form used by the planning grid, one column per month with an
// optional priority column:
//
//	product[,priority],2025-01,2025-02,...
func (l *Loader) parseDemand(records [][]string) (*DemandTable, error) {
	header := normalize(records[0])
	if len(header) < 2 || header[0] != "product" {
		return nil, fmt.Errorf("demand CSV header must start with 'product', got %v", records[0])
	}

	table := &DemandTable{Priorities: make(entities.Priorities)}

	if validateHeader(records[0], []string{"product", "month", "quantity"}) {
		for i, record := range records[1:] {
			row := i + 2
			if len(record) != 3 {
				return nil, fmt.Errorf("demand CSV row %d: expected 3 columns, got %d", row, len(record))
			}
			qty, err := parseNumber(record[2])
			if err != nil {
				return nil, fmt.Errorf("demand CSV row %d: invalid quantity: %w", row, err)
			}
			table.Entries = append(table.Entries, entities.DemandEntry{
				Product:  entities.ProductID(strings.TrimSpace(record[0])),
				Month:    entities.Month(strings.TrimSpace(record[1])),
				Quantity: qty,
			})
		}
		return table, nil
	}

	first := 1
	hasPriority := header[1] == "priority"
	if hasPriority {
		first = 2
	}
	months := make([]entities.Month, 0, len(header)-first)
	for _, col := range records[0][first:] {
		months = append(months, entities.Month(strings.TrimSpace(col)))
	}

	for i, record := range records[1:] {
		row := i + 2
		if len(record) != len(header) {
			return nil, fmt.Errorf("demand CSV row %d: expected %d columns, got %d", row, len(header), len(record))
		}
		product := entities.ProductID(strings.TrimSpace(record[0]))
		if hasPriority && strings.TrimSpace(record[1]) != "" {
			p, err := strconv.Atoi(strings.TrimSpace(record[1]))
			if err != nil {
				return nil, fmt.Errorf("demand CSV row %d: invalid priority: %s", row, record[1])
			}
			table.Priorities[product] = p
		}
		for j, month := range months {
			cell := record[first+j]
			qty := 0.0
			if strings.TrimSpace(cell) != "" {
				v, err := parseNumber(cell)
				if err != nil {
					return nil, fmt.Errorf("demand CSV row %d, month %s: invalid quantity: %w", row, month, err)
				}
				qty = v
			}
			table.Entries = append(table.Entries, entities.DemandEntry{
				Product:  product,
				Month:    month,
				Quantity: qty,
			})
		}
	}

	return table, nil
}

// LoadRates loads a rates table from a CSV file
func (l *Loader) LoadRates(filename string) (*RateTable, error) {
	records, err := readFile(filename, "rates")
	if err != nil {
		return nil, err
	}
	return l.parseRates(records)
}

// ReadRates reads a rates table from r
func (l *Loader) ReadRates(r io.Reader) (*RateTable, error) {
	records, err := readAll(r, "rates")
	if err != nil {
		return nil, err
	}
	return l.parseRates(records)
}

// parseRates accepts three layouts:
//
//	line,product,rate            long form
//	line,<product>,<product>...  one row per line
//	product,<line>,<line>...     one row per product
//
// Empty and zero cells mean the line cannot make the product.
func (l *Loader) parseRates(records [][]string) (*RateTable, error) {
	header := normalize(records[0])
	table := &RateTable{}
	seenLine := make(map[entities.LineID]bool)
	addLine := func(line entities.LineID) {
		if !seenLine[line] {
			seenLine[line] = true
			table.Lines = append(table.Lines, line)
		}
	}

	if validateHeader(records[0], []string{"line", "product", "rate"}) {
		for i, record := range records[1:] {
			row := i + 2
			if len(record) != 3 {
				return nil, fmt.Errorf("rates CSV row %d: expected 3 columns, got %d", row, len(record))
			}
			line := entities.LineID(strings.TrimSpace(record[0]))
			addLine(line)
			rate, ok, err := parseRate(record[2])
			if err != nil {
				return nil, fmt.Errorf("rates CSV row %d: invalid rate: %w", row, err)
			}
			if ok {
				table.Entries = append(table.Entries, entities.RateEntry{
					Line:    line,
					Product: entities.ProductID(strings.TrimSpace(record[1])),
					Rate:    rate,
				})
			}
		}
		return table, nil
	}

	if len(header) < 2 || (header[0] != "line" && header[0] != "product") {
		return nil, fmt.Errorf("rates CSV header must start with 'line' or 'product', got %v", records[0])
	}
	lineMajor := header[0] == "line"

	columns := make([]string, 0, len(header)-1)
	for _, col := range records[0][1:] {
		columns = append(columns, strings.TrimSpace(col))
	}
	if !lineMajor {
		for _, col := range columns {
			addLine(entities.LineID(col))
		}
	}

	for i, record := range records[1:] {
		row := i + 2
		if len(record) != len(header) {
			return nil, fmt.Errorf("rates CSV row %d: expected %d columns, got %d", row, len(header), len(record))
		}
		key := strings.TrimSpace(record[0])
		if lineMajor {
			addLine(entities.LineID(key))
		}
		for j, col := range columns {
			rate, ok, err := parseRate(record[j+1])
			if err != nil {
				return nil, fmt.Errorf("rates CSV row %d, column %s: invalid rate: %w", row, col, err)
			}
			if !ok {
				continue
			}
			entry := entities.RateEntry{Line: entities.LineID(key), Product: entities.ProductID(col), Rate: rate}
			if !lineMajor {
				entry = entities.RateEntry{Line: entities.LineID(col), Product: entities.ProductID(key), Rate: rate}
			}
			table.Entries = append(table.Entries, entry)
		}
	}

	return table, nil
}

// LoadCalendar loads the month calendar from a CSV file
func (l *Loader) LoadCalendar(filename string) ([]entities.CalendarEntry, error) {
	records, err := readFile(filename, "calendar")
	if err != nil {
		return nil, err
	}
	return l.parseCalendar(records)
}

// ReadCalendar reads the month calendar from r
func (l *Loader) ReadCalendar(r io.Reader) ([]entities.CalendarEntry, error) {
	records, err := readAll(r, "calendar")
	if err != nil {
		return nil, err
	}
	return l.parseCalendar(records)
}

// parseCalendar accepts month,available_time or
// month,working_days,hours_per_day (available time = days × hours)
func (l *Loader) parseCalendar(records [][]string) ([]entities.CalendarEntry, error) {
	simple := validateHeader(records[0], []string{"month", "available_time"})
	shifts := validateHeader(records[0], []string{"month", "working_days", "hours_per_day"})
	if !simple && !shifts {
		return nil, fmt.Errorf("calendar CSV header mismatch. Expected: [month available_time] or [month working_days hours_per_day], Got: %v", records[0])
	}

	var entries []entities.CalendarEntry
	for i, record := range records[1:] {
		row := i + 2
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("calendar CSV row %d: expected %d columns, got %d", row, len(records[0]), len(record))
		}
		available, err := parseNumber(record[1])
		if err != nil {
			return nil, fmt.Errorf("calendar CSV row %d: invalid %s: %w", row, records[0][1], err)
		}
		if shifts {
			hours, err := parseNumber(record[2])
			if err != nil {
				return nil, fmt.Errorf("calendar CSV row %d: invalid hours_per_day: %w", row, err)
			}
			// the product hides the sign of two negative cells
			if available < 0 {
				return nil, fmt.Errorf("calendar CSV row %d: working_days must be non-negative, got %v", row, available)
			}
			if hours < 0 {
				return nil, fmt.Errorf("calendar CSV row %d: hours_per_day must be non-negative, got %v", row, hours)
			}
			available *= hours
		}
		entries = append(entries, entities.CalendarEntry{
			Month:         entities.Month(strings.TrimSpace(record[0])),
			AvailableTime: available,
		})
	}

	return entries, nil
}

// LoadLineCalendar loads per-line calendar overrides from a CSV file
func (l *Loader) LoadLineCalendar(filename string) ([]entities.LineCalendarEntry, error) {
	records, err := readFile(filename, "line calendar")
	if err != nil {
		return nil, err
	}

	expectedHeader := []string{"line", "month", "available_time"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("line calendar CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var entries []entities.LineCalendarEntry
	for i, record := range records[1:] {
		row := i + 2
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("line calendar CSV row %d: expected %d columns, got %d", row, len(expectedHeader), len(record))
		}
		available, err := parseNumber(record[2])
		if err != nil {
			return nil, fmt.Errorf("line calendar CSV row %d: invalid available_time: %w", row, err)
		}
		entries = append(entries, entities.LineCalendarEntry{
			Line:          entities.LineID(strings.TrimSpace(record[0])),
			Month:         entities.Month(strings.TrimSpace(record[1])),
			AvailableTime: available,
		})
	}

	return entries, nil
}

// Helper functions for parsing CSV records

func readFile(filename, name string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	return readAll(file, name)
}

func readAll(r io.Reader, name string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", name)
	}
	if len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func normalize(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = strings.ToLower(strings.TrimSpace(col))
	}
	return out
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// parseRate returns ok=false for empty or zero cells
func parseRate(s string) (float64, bool, error) {
	if strings.TrimSpace(s) == "" {
		return 0, false, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return 0, false, err
	}
	if v == 0 {
		return 0, false, nil
	}
	return v, true, nil
}
