package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
)

// AddEquipment appends a record to a dataset. The record carries its own
// timestamp, independent of the dataset's creation time.
func (s *Service) AddEquipment(userID, datasetID uuid.UUID, fields Fields) (*entity.Equipment, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("dataset:" + datasetID.String())
	defer unlock()

	var eq *entity.Equipment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ds, err := s.findOwned(tx, userID, datasetID)
		if err != nil {
			return err
		}

		var maxPos int
		err = tx.Model(&entity.Equipment{}).
			Where("dataset_id = ?", datasetID).
			Select("COALESCE(MAX(position), 0)").
			Scan(&maxPos).Error
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}

		eq = &entity.Equipment{
			DatasetID:     datasetID,
			Name:          fields.Name,
			EquipmentType: fields.EquipmentType,
			Flowrate:      fields.Flowrate,
			Pressure:      fields.Pressure,
			Temperature:   fields.Temperature,
			RecordedAt:    time.Now().UTC(),
			Position:      maxPos + 1,
		}
		if err := tx.Create(eq).Error; err != nil {
			return fmt.Errorf("create equipment: %w", err)
		}

		return s.recomputeTx(tx, ds)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("equipment added",
		zap.String("dataset_id", datasetID.String()),
		zap.String("equipment_id", eq.ID.String()))
	return eq, nil
}

// UpdateEquipment replaces the name, type and all three parameters of a
// record. DatasetID, timestamp and position stay untouched.
func (s *Service) UpdateEquipment(userID, datasetID, equipmentID uuid.UUID, fields Fields) (*entity.Equipment, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock("dataset:" + datasetID.String())
	defer unlock()

	var eq entity.Equipment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ds, err := s.findOwned(tx, userID, datasetID)
		if err != nil {
			return err
		}

		err = tx.Where("id = ? AND dataset_id = ?", equipmentID, datasetID).First(&eq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load equipment: %w", err)
		}

		eq.Name = fields.Name
		eq.EquipmentType = fields.EquipmentType
		eq.Flowrate = fields.Flowrate
		eq.Pressure = fields.Pressure
		eq.Temperature = fields.Temperature
		if err := tx.Save(&eq).Error; err != nil {
			return fmt.Errorf("update equipment: %w", err)
		}

		return s.recomputeTx(tx, ds)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("equipment updated",
		zap.String("dataset_id", datasetID.String()),
		zap.String("equipment_id", equipmentID.String()))
	return &eq, nil
}

// DeleteEquipment removes a record and recomputes the summary. Deleting the
// final record is rejected: a committed dataset always keeps at least one
// record so its summary stays well defined. A repeated delete of the same id
// fails with ErrNotFound rather than silently succeeding.
func (s *Service) DeleteEquipment(userID, datasetID, equipmentID uuid.UUID) error {
	unlock := s.locks.lock("dataset:" + datasetID.String())
	defer unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		ds, err := s.findOwned(tx, userID, datasetID)
		if err != nil {
			return err
		}

		var eq entity.Equipment
		err = tx.Where("id = ? AND dataset_id = ?", equipmentID, datasetID).First(&eq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load equipment: %w", err)
		}

		var count int64
		if err := tx.Model(&entity.Equipment{}).Where("dataset_id = ?", datasetID).Count(&count).Error; err != nil {
			return fmt.Errorf("count records: %w", err)
		}
		if count <= 1 {
			return ErrLastRecord
		}

		if err := tx.Delete(&eq).Error; err != nil {
			return fmt.Errorf("delete equipment: %w", err)
		}

		return s.recomputeTx(tx, ds)
	})
	if err != nil {
		return err
	}

	s.logger.Info("equipment deleted",
		zap.String("dataset_id", datasetID.String()),
		zap.String("equipment_id", equipmentID.String()))
	return nil
}

// ListEquipment returns the dataset's records whose RecordedAt falls within
// [start, end], both bounds inclusive and optional. The repository is never
// mutated by a filtered read.
func (s *Service) ListEquipment(userID, datasetID uuid.UUID, start, end *time.Time) ([]entity.Equipment, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, ErrInvalidRange
	}

	if _, err := s.findOwned(s.db, userID, datasetID); err != nil {
		return nil, err
	}

	query := s.db.Where("dataset_id = ?", datasetID)
	if start != nil {
		query = query.Where("recorded_at >= ?", *start)
	}
	if end != nil {
		query = query.Where("recorded_at <= ?", *end)
	}

	var records []entity.Equipment
	if err := query.Order("position asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("filter equipment: %w", err)
	}
	return records, nil
}
