package summary

import (
	"errors"
	"math"
	"strings"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
)

// ErrEmptyDataset is returned when aggregation is attempted over zero records.
// Averages are undefined for an empty set, so callers must never let a dataset
// reach that state with a committed summary.
var ErrEmptyDataset = errors.New("cannot aggregate an empty record set")

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Summary holds the derived statistics for one dataset. Averages are kept at
// full float64 precision; rounding happens only at presentation edges.
type Summary struct {
	Total            int         `json:"total_equipment"`
	AvgFlowrate      float64     `json:"avg_flowrate"`
	AvgPressure      float64     `json:"avg_pressure"`
	AvgTemperature   float64     `json:"avg_temperature"`
	TypeDistribution []TypeCount `json:"type_distribution"`
}

// Aggregate computes the summary statistics for a set of equipment records.
// The type distribution preserves first-seen order so repeated aggregation of
// the same records is deterministic.
func Aggregate(records []entity.Equipment) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrEmptyDataset
	}

	var sumFlow, sumPres, sumTemp float64
	index := make(map[string]int, len(records))
	dist := make([]TypeCount, 0, len(records))

	for _, r := range records {
		sumFlow += r.Flowrate
		sumPres += r.Pressure
		sumTemp += r.Temperature

		label := strings.TrimSpace(r.EquipmentType)
		if i, ok := index[label]; ok {
			dist[i].Count++
		} else {
			index[label] = len(dist)
			dist = append(dist, TypeCount{Type: label, Count: 1})
		}
	}

	n := float64(len(records))
	return Summary{
		Total:            len(records),
		AvgFlowrate:      sumFlow / n,
		AvgPressure:      sumPres / n,
		AvgTemperature:   sumTemp / n,
		TypeDistribution: dist,
	}, nil
}

// Round2 rounds a value to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns a copy of the summary with averages rounded for display.
// The receiver keeps full precision.
func (s Summary) Rounded() Summary {
	s.AvgFlowrate = Round2(s.AvgFlowrate)
	s.AvgPressure = Round2(s.AvgPressure)
	s.AvgTemperature = Round2(s.AvgTemperature)
	return s
}
