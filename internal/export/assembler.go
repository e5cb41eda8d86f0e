package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/summary"
)

// Row is one equipment record with parameters fixed to two decimal places.
// Both the delimited export and the printable report consume these same
// strings, so the two renderings can never disagree.
type Row struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Flowrate    string    `json:"flowrate"`
	Pressure    string    `json:"pressure"`
	Temperature string    `json:"temperature"`
	RecordedAt  string    `json:"recorded_at"`
}

// SummaryBlock is the presentation form of the dataset summary.
type SummaryBlock struct {
	TotalEquipment   int                 `json:"total_equipment"`
	AvgFlowrate      string              `json:"avg_flowrate"`
	AvgPressure      string              `json:"avg_pressure"`
	AvgTemperature   string              `json:"avg_temperature"`
	TypeDistribution []summary.TypeCount `json:"type_distribution"`
}

// Payload is the canonical export representation of a dataset. The rendering
// collaborators (PDF report, delimited table) both work from this one payload;
// the assembler does not know which format is chosen downstream.
type Payload struct {
	DatasetID   uuid.UUID    `json:"dataset_id"`
	Filename    string       `json:"filename"`
	UploadedAt  time.Time    `json:"uploaded_at"`
	GeneratedAt time.Time    `json:"generated_at"`
	Summary     SummaryBlock `json:"summary"`
	Rows        []Row        `json:"rows"`
}

// Assemble builds the export payload from a dataset and its records in
// creation order. Numeric values are formatted from the full-precision source
// exactly once, here.
func Assemble(ds *entity.Dataset, records []entity.Equipment) (*Payload, error) {
	var dist []summary.TypeCount
	if err := ds.DecodeTypeDistribution(&dist); err != nil {
		return nil, fmt.Errorf("decode type distribution: %w", err)
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			ID:          r.ID,
			Name:        r.Name,
			Type:        r.EquipmentType,
			Flowrate:    format2(r.Flowrate),
			Pressure:    format2(r.Pressure),
			Temperature: format2(r.Temperature),
			RecordedAt:  r.RecordedAt.UTC().Format(time.RFC3339),
		}
	}

	return &Payload{
		DatasetID:   ds.ID,
		Filename:    ds.Filename,
		UploadedAt:  ds.CreatedAt,
		GeneratedAt: time.Now().UTC(),
		Summary: SummaryBlock{
			TotalEquipment:   ds.TotalEquipment,
			AvgFlowrate:      format2(ds.AvgFlowrate),
			AvgPressure:      format2(ds.AvgPressure),
			AvgTemperature:   format2(ds.AvgTemperature),
			TypeDistribution: dist,
		},
		Rows: rows,
	}, nil
}

func format2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
