package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Equipment is a single parameter record. DatasetID never changes after
// creation. Position preserves creation order even when RecordedAt timestamps
// collide (bulk ingestion stamps all rows in the same instant).
type Equipment struct {
	gorm.Model
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	DatasetID     uuid.UUID `json:"dataset_id" gorm:"type:uuid;not null;index"`
	Name          string    `json:"name" gorm:"type:varchar(255)"`
	EquipmentType string    `json:"type" gorm:"type:varchar(100)"`
	Flowrate      float64   `json:"flowrate" gorm:"not null"`
	Pressure      float64   `json:"pressure" gorm:"not null"`
	Temperature   float64   `json:"temperature" gorm:"not null"`
	RecordedAt    time.Time `json:"recorded_at" gorm:"not null;index"`
	Position      int       `json:"-" gorm:"not null"`
}

func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
