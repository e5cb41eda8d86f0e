package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature", "Recorded At"}

// WriteCSV renders the payload as a delimited table: one header row, one row
// per equipment record, followed by a summary block.
func WriteCSV(w io.Writer, p *Payload) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range p.Rows {
		record := []string{row.Name, row.Type, row.Flowrate, row.Pressure, row.Temperature, row.RecordedAt}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	summaryRows := [][]string{
		{},
		{"Summary", ""},
		{"Total Equipment", strconv.Itoa(p.Summary.TotalEquipment)},
		{"Average Flowrate", p.Summary.AvgFlowrate},
		{"Average Pressure", p.Summary.AvgPressure},
		{"Average Temperature", p.Summary.AvgTemperature},
	}
	for _, tc := range p.Summary.TypeDistribution {
		summaryRows = append(summaryRows, []string{"Type: " + tc.Type, strconv.Itoa(tc.Count)})
	}
	for _, record := range summaryRows {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
