package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Record is one validated row of the input table, not yet persisted.
type Record struct {
	Name          string
	EquipmentType string
	Flowrate      float64
	Pressure      float64
	Temperature   float64
}

// RowError reports a data row that was dropped during ingestion. Row numbers
// are 1-based over the data rows (the header is row 0).
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// RowWarning flags a quality issue that did not prevent ingestion of the row.
type RowWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result carries the validated records together with the per-row error and
// warning reports for the caller to display.
type Result struct {
	Records   []Record
	RowErrors []RowError
	Warnings  []RowWarning
}

// ValidationError is the fatal case: the table as a whole is unusable and no
// dataset may be created from it.
type ValidationError struct {
	Reason         string
	MissingColumns []string
}

func (e *ValidationError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
	}
	return e.Reason
}

var requiredColumns = []string{"name", "type", "flowrate", "pressure", "temperature"}

// columnAliases maps normalized header names to canonical column names. The
// source tables in the wild use several spellings for the same concept.
var columnAliases = map[string]string{
	"equipment name": "name",
	"equipment_name": "name",
	"name":           "name",
	"type":           "type",
	"equipment type": "type",
	"equipment_type": "type",
	"flowrate":       "flowrate",
	"flow rate":      "flowrate",
	"flow_rate":      "flowrate",
	"pressure":       "pressure",
	"temperature":    "temperature",
	"temp":           "temperature",
}

var displayNames = map[string]string{
	"name":        "Equipment Name",
	"type":        "Type",
	"flowrate":    "Flowrate",
	"pressure":    "Pressure",
	"temperature": "Temperature",
}

// Parse reads a CSV table and validates it into typed records.
//
// A missing required column aborts the whole ingestion. A row whose numeric
// fields do not parse as finite numbers is dropped and reported as a RowError;
// ingestion succeeds as long as at least one valid row remains. Empty name or
// type cells are accepted but reported as warnings.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed CSV header: %v", err)}
	}

	// First matching header wins for each canonical column.
	columns := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, displayNames[col])
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{MissingColumns: missing}
	}

	result := &Result{}
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Row: row, Reason: fmt.Sprintf("malformed row: %v", err)})
			continue
		}

		rec, rowErr := parseRow(row, fields, columns)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, *rowErr)
			continue
		}
		if rec.Name == "" {
			result.Warnings = append(result.Warnings, RowWarning{Row: row, Message: "empty equipment name"})
		}
		if rec.EquipmentType == "" {
			result.Warnings = append(result.Warnings, RowWarning{Row: row, Message: "empty equipment type"})
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Records) == 0 {
		return nil, &ValidationError{Reason: "no valid rows in file"}
	}
	return result, nil
}

func parseRow(row int, fields []string, columns map[string]int) (Record, *RowError) {
	get := func(col string) (string, bool) {
		i := columns[col]
		if i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	var rec Record
	for _, col := range []string{"name", "type", "flowrate", "pressure", "temperature"} {
		raw, ok := get(col)
		if !ok {
			return Record{}, &RowError{Row: row, Reason: fmt.Sprintf("missing value for %s", displayNames[col])}
		}
		switch col {
		case "name":
			rec.Name = raw
		case "type":
			rec.EquipmentType = raw
		default:
			v, err := parseParam(raw)
			if err != nil {
				return Record{}, &RowError{Row: row, Reason: fmt.Sprintf("%s: %v", displayNames[col], err)}
			}
			switch col {
			case "flowrate":
				rec.Flowrate = v
			case "pressure":
				rec.Pressure = v
			case "temperature":
				rec.Temperature = v
			}
		}
	}
	return rec, nil
}

func parseParam(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}
