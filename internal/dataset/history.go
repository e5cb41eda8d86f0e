package dataset

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
)

// History returns the owner's datasets, most recent first, capped at
// HistoryLimit. The cap is enforced at ingestion time, so the limit here is
// only a guard.
func (s *Service) History(userID uuid.UUID) ([]entity.Dataset, error) {
	var datasets []entity.Dataset
	err := s.db.Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(HistoryLimit).
		Find(&datasets).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return datasets, nil
}

// Delete removes a dataset and all its equipment records on explicit user
// request. It shares the cascade primitive with history eviction.
func (s *Service) Delete(userID, datasetID uuid.UUID) error {
	unlock := s.locks.lock("owner:" + userID.String())
	defer unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.findOwned(tx, userID, datasetID); err != nil {
			return err
		}
		return deleteDatasetTx(tx, datasetID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("dataset deleted",
		zap.String("dataset_id", datasetID.String()),
		zap.String("user_id", userID.String()))
	return nil
}

// evictOverCapTx removes the owner's oldest datasets beyond HistoryLimit.
// Runs inside the ingestion transaction so the cap holds the moment the new
// dataset becomes visible.
func (s *Service) evictOverCapTx(tx *gorm.DB, userID uuid.UUID) error {
	var all []entity.Dataset
	err := tx.Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&all).Error
	if err != nil {
		return fmt.Errorf("find datasets over cap: %w", err)
	}
	if len(all) <= HistoryLimit {
		return nil
	}

	for _, ds := range all[HistoryLimit:] {
		if err := deleteDatasetTx(tx, ds.ID); err != nil {
			return err
		}
		s.logger.Info("dataset evicted from history",
			zap.String("dataset_id", ds.ID.String()),
			zap.String("user_id", userID.String()))
	}
	return nil
}

// deleteDatasetTx is the cascade-delete primitive: equipment records first,
// then the dataset row. Used by both eviction and explicit deletion.
func deleteDatasetTx(tx *gorm.DB, datasetID uuid.UUID) error {
	if err := tx.Where("dataset_id = ?", datasetID).Delete(&entity.Equipment{}).Error; err != nil {
		return fmt.Errorf("delete equipment records: %w", err)
	}
	if err := tx.Where("id = ?", datasetID).Delete(&entity.Dataset{}).Error; err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}
