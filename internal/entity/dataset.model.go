package entity

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dataset is one ingested upload. The summary columns cache the output of the
// aggregator over the dataset's equipment records; every mutation path rewrites
// them in the same transaction, so they are never stale for a committed dataset.
type Dataset struct {
	gorm.Model
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primary_key"`
	UserID           uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	Filename         string      `json:"filename" gorm:"type:varchar(255);not null"`
	TotalEquipment   int         `json:"total_equipment" gorm:"not null"`
	AvgFlowrate      float64     `json:"avg_flowrate" gorm:"not null"`
	AvgPressure      float64     `json:"avg_pressure" gorm:"not null"`
	AvgTemperature   float64     `json:"avg_temperature" gorm:"not null"`
	TypeDistribution string      `json:"-" gorm:"type:text;not null;default:'[]'"`
	Equipment        []Equipment `json:"-" gorm:"foreignKey:DatasetID"`
}

func (d *Dataset) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// SetTypeDistribution stores any JSON-marshalable distribution value.
func (d *Dataset) SetTypeDistribution(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	d.TypeDistribution = string(b)
	return nil
}

// DecodeTypeDistribution unmarshals the stored distribution into out.
func (d *Dataset) DecodeTypeDistribution(out any) error {
	raw := d.TypeDistribution
	if raw == "" {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), out)
}
