package dataset

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/entity"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/ingest"
	"github.com/228w1a12d7/chemical-equipment-visualizer/internal/summary"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Dataset{}, &entity.Equipment{}))

	return NewService(db, zap.NewNop())
}

func testRecords() []ingest.Record {
	return []ingest.Record{
		{Name: "Reactor-001", EquipmentType: "Reactor", Flowrate: 150.5, Pressure: 25.3, Temperature: 180.0},
		{Name: "Pump-002", EquipmentType: "Pump", Flowrate: 75.2, Pressure: 10.1, Temperature: 45.5},
		{Name: "Pump-003", EquipmentType: "Pump", Flowrate: 80.0, Pressure: 12.5, Temperature: 50.0},
	}
}

func TestIngestComputesSummary(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, ds.ID)

	sum, err := s.Summary(ds)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.InDelta(t, (150.5+75.2+80.0)/3, sum.AvgFlowrate, 1e-9)
	assert.InDelta(t, (25.3+10.1+12.5)/3, sum.AvgPressure, 1e-9)
	assert.InDelta(t, (180.0+45.5+50.0)/3, sum.AvgTemperature, 1e-9)
	assert.Equal(t, []summary.TypeCount{
		{Type: "Reactor", Count: 1},
		{Type: "Pump", Count: 2},
	}, sum.TypeDistribution)
}

func TestIngestRejectsEmptyRecordSet(t *testing.T) {
	s := setupService(t)

	_, err := s.Ingest(uuid.New(), "empty.csv", nil)
	assert.ErrorIs(t, err, summary.ErrEmptyDataset)
}

func TestGetReturnsRecordsInCreationOrder(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	_, records, err := s.Get(userID, ds.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Reactor-001", records[0].Name)
	assert.Equal(t, "Pump-002", records[1].Name)
	assert.Equal(t, "Pump-003", records[2].Name)
}

func TestGetOtherOwnersDatasetNotFound(t *testing.T) {
	s := setupService(t)

	ds, err := s.Ingest(uuid.New(), "plant.csv", testRecords())
	require.NoError(t, err)

	_, _, err = s.Get(uuid.New(), ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < HistoryLimit+1; i++ {
		ds, err := s.Ingest(userID, fmt.Sprintf("upload-%d.csv", i), testRecords())
		require.NoError(t, err)
		ids = append(ids, ds.ID)
		// created_at orders the history index
		time.Sleep(5 * time.Millisecond)
	}

	history, err := s.History(userID)
	require.NoError(t, err)
	require.Len(t, history, HistoryLimit)

	assert.Equal(t, "upload-5.csv", history[0].Filename)
	assert.Equal(t, "upload-1.csv", history[len(history)-1].Filename)

	// The evicted dataset and its equipment records are unreachable.
	_, _, err = s.Get(userID, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ListEquipment(userID, ids[0], nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, s.db.Model(&entity.Equipment{}).Where("dataset_id = ?", ids[0]).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteDatasetCascades(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	require.NoError(t, s.Delete(userID, ds.ID))

	_, _, err = s.Get(userID, ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, s.db.Model(&entity.Equipment{}).Where("dataset_id = ?", ds.ID).Count(&count).Error)
	assert.Zero(t, count)

	// deleting again fails instead of silently succeeding
	assert.ErrorIs(t, s.Delete(userID, ds.ID), ErrNotFound)
}

func TestAddEquipmentRecomputesAverage(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	before, err := s.Summary(ds)
	require.NoError(t, err)
	n := float64(before.Total)

	added, err := s.AddEquipment(userID, ds.ID, Fields{
		Name:          "Exchanger-004",
		EquipmentType: "Heat Exchanger",
		Flowrate:      200.0,
		Pressure:      30.0,
		Temperature:   120.0,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, added.ID)

	ds, _, err = s.Get(userID, ds.ID)
	require.NoError(t, err)
	after, err := s.Summary(ds)
	require.NoError(t, err)

	assert.Equal(t, before.Total+1, after.Total)
	assert.InDelta(t, (before.AvgFlowrate*n+200.0)/(n+1), after.AvgFlowrate, 1e-9)
	assert.InDelta(t, (before.AvgPressure*n+30.0)/(n+1), after.AvgPressure, 1e-9)
	assert.InDelta(t, (before.AvgTemperature*n+120.0)/(n+1), after.AvgTemperature, 1e-9)
}

func TestAddEquipmentRejectsNonFiniteValues(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	nan := 0.0
	nan = nan / nan
	_, err = s.AddEquipment(userID, ds.ID, Fields{Name: "X", EquipmentType: "Pump", Flowrate: nan})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestAddEquipmentUnknownDatasetNotFound(t *testing.T) {
	s := setupService(t)

	_, err := s.AddEquipment(uuid.New(), uuid.New(), Fields{Name: "X", EquipmentType: "Pump"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEquipmentRecomputesSummary(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	_, records, err := s.Get(userID, ds.ID)
	require.NoError(t, err)

	updated, err := s.UpdateEquipment(userID, ds.ID, records[0].ID, Fields{
		Name:          "Reactor-001b",
		EquipmentType: "Column",
		Flowrate:      100.0,
		Pressure:      20.0,
		Temperature:   150.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "Reactor-001b", updated.Name)
	assert.Equal(t, "Column", updated.EquipmentType)
	assert.Equal(t, records[0].ID, updated.ID)
	assert.Equal(t, ds.ID, updated.DatasetID)

	ds, _, err = s.Get(userID, ds.ID)
	require.NoError(t, err)
	sum, err := s.Summary(ds)
	require.NoError(t, err)

	assert.InDelta(t, (100.0+75.2+80.0)/3, sum.AvgFlowrate, 1e-9)
	assert.Equal(t, []summary.TypeCount{
		{Type: "Column", Count: 1},
		{Type: "Pump", Count: 2},
	}, sum.TypeDistribution)
}

func TestUpdateEquipmentUnknownIDNotFound(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	_, err = s.UpdateEquipment(userID, ds.ID, uuid.New(), Fields{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEquipmentRecomputesAndFailsOnRepeat(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	_, records, err := s.Get(userID, ds.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteEquipment(userID, ds.ID, records[0].ID))

	ds, remaining, err := s.Get(userID, ds.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	sum, err := s.Summary(ds)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.InDelta(t, (75.2+80.0)/2, sum.AvgFlowrate, 1e-9)
	assert.Equal(t, []summary.TypeCount{{Type: "Pump", Count: 2}}, sum.TypeDistribution)

	// second delete of the same id must fail, not silently succeed
	assert.ErrorIs(t, s.DeleteEquipment(userID, ds.ID, records[0].ID), ErrNotFound)
}

func TestDeleteLastEquipmentRejected(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "single.csv", testRecords()[:1])
	require.NoError(t, err)

	_, records, err := s.Get(userID, ds.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	err = s.DeleteEquipment(userID, ds.ID, records[0].ID)
	assert.ErrorIs(t, err, ErrLastRecord)

	// record and summary are untouched
	ds, records, err = s.Get(userID, ds.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, ds.TotalEquipment)
}

func TestListEquipmentFiltersInclusiveRange(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	_, records, err := s.Get(userID, ds.ID)
	require.NoError(t, err)

	d1 := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, d := range []time.Time{d1, d2, d3} {
		require.NoError(t, s.db.Model(&entity.Equipment{}).
			Where("id = ?", records[i].ID).
			Update("recorded_at", d).Error)
	}

	filtered, err := s.ListEquipment(userID, ds.ID, &d2, &d2)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, records[1].ID, filtered[0].ID)

	filtered, err = s.ListEquipment(userID, ds.ID, &d2, nil)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = s.ListEquipment(userID, ds.ID, nil, &d2)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	filtered, err = s.ListEquipment(userID, ds.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, filtered, 3)
}

func TestListEquipmentInvalidRange(t *testing.T) {
	s := setupService(t)
	userID := uuid.New()

	ds, err := s.Ingest(userID, "plant.csv", testRecords())
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.ListEquipment(userID, ds.ID, &start, &end)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestOwnersAreIsolated(t *testing.T) {
	s := setupService(t)
	alice := uuid.New()
	bob := uuid.New()

	aliceDS, err := s.Ingest(alice, "alice.csv", testRecords())
	require.NoError(t, err)
	_, err = s.Ingest(bob, "bob.csv", testRecords())
	require.NoError(t, err)

	aliceHistory, err := s.History(alice)
	require.NoError(t, err)
	require.Len(t, aliceHistory, 1)
	assert.Equal(t, "alice.csv", aliceHistory[0].Filename)

	assert.ErrorIs(t, s.Delete(bob, aliceDS.ID), ErrNotFound)
	_, err = s.AddEquipment(bob, aliceDS.ID, Fields{Name: "X", EquipmentType: "Pump"})
	assert.ErrorIs(t, err, ErrNotFound)
}
