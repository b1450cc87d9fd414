package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/domain/entities"
)

// Table names an exportable result table
type Table string

const (
	TableAllocations     Table = "allocations"
	TableLineUtilization Table = "line_utilization"
	TableFillRates       Table = "fill_rates"
	TableShortfalls      Table = "shortfalls"
)

// Tables lists every exportable table in file order
var Tables = []Table{TableAllocations, TableLineUtilization, TableFillRates, TableShortfalls}

// MetadataFile is the name of the metadata document written next to the tables
const MetadataFile = "metadata.json"

// ParseTable resolves a table name
func ParseTable(name string) (Table, error) {
	for _, t := range Tables {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown table %q", name)
}

// FileName returns the CSV file name of the table
func (t Table) FileName() string {
	return string(t) + ".csv"
}

// WriteTable writes one result table as CSV. Values are rounded to
// precision decimal places for display only.
func WriteTable(w io.Writer, result *dto.PlanResult, table Table, precision int32) error {
	cw := csv.NewWriter(w)
	num := func(v float64) string {
		return formatNumber(v, precision)
	}

	var rows [][]string
	switch table {
	case TableAllocations:
		rows = append(rows, []string{"product", "line", "month", "quantity"})
		for _, a := range result.Allocations {
			rows = append(rows, []string{string(a.Product), string(a.Line), string(a.Month), num(a.Quantity)})
		}
	case TableLineUtilization:
		rows = append(rows, []string{"line", "month", "available_time", "consumed_time", "utilization"})
		for _, u := range result.Utilization {
			rows = append(rows, []string{string(u.Line), string(u.Month), num(u.AvailableTime), num(u.ConsumedTime), num(u.Utilization)})
		}
	case TableFillRates:
		rows = append(rows, []string{"product", "month", "demand", "allocated", "fill_rate"})
		for _, f := range result.FillRates {
			rows = append(rows, []string{string(f.Product), string(f.Month), num(f.Demand), num(f.Allocated), num(f.FillRate)})
		}
	case TableShortfalls:
		rows = append(rows, []string{"product", "month", "demand", "allocated", "shortfall"})
		for _, s := range result.Shortfalls {
			rows = append(rows, []string{string(s.Product), string(s.Month), num(s.Demand), num(s.Allocated), num(s.Shortfall)})
		}
	default:
		return fmt.Errorf("unknown table %q", table)
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s CSV: %w", table, err)
	}
	return nil
}

// WriteMetadata writes the run metadata as indented JSON
func WriteMetadata(w io.Writer, result *dto.PlanResult) error {
	doc := struct {
		RunID       string `json:"run_id"`
		GeneratedAt string `json:"generated_at"`
		Duration    string `json:"duration"`
		entities.Metadata
	}{
		RunID:       result.RunID,
		GeneratedAt: result.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:    result.Duration.String(),
		Metadata:    result.Metadata,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// formatNumber renders v with exactly precision decimal places
func formatNumber(v float64, precision int32) string {
	return decimal.NewFromFloat(v).StringFixed(precision)
}
