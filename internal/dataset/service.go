package dataset

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/ingest"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/summary"
)

// HistoryLimit is the maximum number of datasets kept per user. Registering
// one more evicts the oldest, equipment records included.
const HistoryLimit = 5

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidField = errors.New("numeric parameters must be finite numbers")
	ErrInvalidRange = errors.New("start date must not be after end date")
	ErrLastRecord   = errors.New("cannot delete the last record of a dataset")
)

// Service owns dataset and equipment persistence. Every mutation commits the
// record change and the recomputed summary in a single transaction, so readers
// never observe a dataset whose cached summary disagrees with its records.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	locks  *keyedMutex
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// Fields is the full replaceable field set of an equipment record.
type Fields struct {
	Name          string
	EquipmentType string
	Flowrate      float64
	Pressure      float64
	Temperature   float64
}

func (f Fields) validate() error {
	for _, v := range []float64{f.Flowrate, f.Pressure, f.Temperature} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidField
		}
	}
	return nil
}

// Ingest creates a dataset from validated records, computes its summary and
// registers it in the owner's history, evicting beyond the cap. The whole
// operation commits atomically.
func (s *Service) Ingest(userID uuid.UUID, filename string, records []ingest.Record) (*entity.Dataset, error) {
	if len(records) == 0 {
		return nil, summary.ErrEmptyDataset
	}

	unlock := s.locks.lock("owner:" + userID.String())
	defer unlock()

	ds := &entity.Dataset{
		UserID:   userID,
		Filename: filename,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ds).Error; err != nil {
			return fmt.Errorf("create dataset: %w", err)
		}

		now := time.Now().UTC()
		rows := make([]entity.Equipment, len(records))
		for i, r := range records {
			rows[i] = entity.Equipment{
				DatasetID:     ds.ID,
				Name:          r.Name,
				EquipmentType: r.EquipmentType,
				Flowrate:      r.Flowrate,
				Pressure:      r.Pressure,
				Temperature:   r.Temperature,
				RecordedAt:    now,
				Position:      i + 1,
			}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("create equipment records: %w", err)
		}

		if err := s.recomputeTx(tx, ds); err != nil {
			return err
		}

		return s.evictOverCapTx(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dataset ingested",
		zap.String("dataset_id", ds.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("records", len(records)))
	return ds, nil
}

// Get returns a dataset owned by userID together with its equipment records in
// creation order.
func (s *Service) Get(userID, datasetID uuid.UUID) (*entity.Dataset, []entity.Equipment, error) {
	ds, err := s.findOwned(s.db, userID, datasetID)
	if err != nil {
		return nil, nil, err
	}

	var records []entity.Equipment
	if err := s.db.Where("dataset_id = ?", datasetID).Order("position asc").Find(&records).Error; err != nil {
		return nil, nil, fmt.Errorf("load equipment records: %w", err)
	}
	return ds, records, nil
}

// findOwned fetches the dataset if it belongs to userID. A dataset belonging
// to somebody else is indistinguishable from a missing one.
func (s *Service) findOwned(tx *gorm.DB, userID, datasetID uuid.UUID) (*entity.Dataset, error) {
	var ds entity.Dataset
	err := tx.Where("id = ? AND user_id = ?", datasetID, userID).First(&ds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return &ds, nil
}

// recomputeTx is the single choke point that rewrites a dataset's cached
// summary from its current records. Every mutation path must call it inside
// the mutating transaction before committing.
func (s *Service) recomputeTx(tx *gorm.DB, ds *entity.Dataset) error {
	var records []entity.Equipment
	if err := tx.Where("dataset_id = ?", ds.ID).Order("position asc").Find(&records).Error; err != nil {
		return fmt.Errorf("load records for summary: %w", err)
	}

	sum, err := summary.Aggregate(records)
	if err != nil {
		return err
	}

	if err := ds.SetTypeDistribution(sum.TypeDistribution); err != nil {
		return fmt.Errorf("encode type distribution: %w", err)
	}
	ds.TotalEquipment = sum.Total
	ds.AvgFlowrate = sum.AvgFlowrate
	ds.AvgPressure = sum.AvgPressure
	ds.AvgTemperature = sum.AvgTemperature

	updates := map[string]any{
		"total_equipment":   ds.TotalEquipment,
		"avg_flowrate":      ds.AvgFlowrate,
		"avg_pressure":      ds.AvgPressure,
		"avg_temperature":   ds.AvgTemperature,
		"type_distribution": ds.TypeDistribution,
	}
	if err := tx.Model(&entity.Dataset{}).Where("id = ?", ds.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}
	return nil
}

// Summary decodes the cached summary of a dataset.
func (s *Service) Summary(ds *entity.Dataset) (summary.Summary, error) {
	var dist []summary.TypeCount
	if err := ds.DecodeTypeDistribution(&dist); err != nil {
		return summary.Summary{}, fmt.Errorf("decode type distribution: %w", err)
	}
	return summary.Summary{
		Total:            ds.TotalEquipment,
		AvgFlowrate:      ds.AvgFlowrate,
		AvgPressure:      ds.AvgPressure,
		AvgTemperature:   ds.AvgTemperature,
		TypeDistribution: dist,
	}, nil
}
