package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/risk"
	"equipment-risk-gateway/internal/storage"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *maintenance.Scheduler) {
	scheduler := maintenance.NewScheduler()
	e := New(
		storage.NewPolicyStore(risk.DefaultPolicy()),
		storage.NewHistoryStore(),
		storage.NewTimeSeriesStore(),
		scheduler,
		nil, // no alerter: delivery is not under test here
		nil,
	)
	e.now = func() time.Time { return testNow }
	return e, scheduler
}

func batch() []data.Reading {
	return []data.Reading{
		{EquipmentName: "Tank A", EquipmentType: "Tank", Flowrate: 100, Pressure: 50, Temperature: 60, Timestamp: testNow},
		{EquipmentName: "Reactor B", EquipmentType: "Reactor", Flowrate: 250, Pressure: 120, Temperature: 180, Timestamp: testNow},
	}
}

func TestProcessBatchRetainsAndAppends(t *testing.T) {
	e, _ := newTestEngine()

	record, err := e.ProcessBatch(batch(), "readings.csv")
	require.NoError(t, err)
	assert.Equal(t, "readings.csv", record.Filename)
	assert.Equal(t, 90, record.Summary.HealthScore)

	history := e.History()
	require.Len(t, history, 1)

	trends := e.Trends("", 30)
	assert.ElementsMatch(t, []string{"Tank A", "Reactor B"}, trends.EquipmentList)
	assert.Len(t, trends.History, 2)
}

func TestProcessBatchEmptyFails(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.ProcessBatch(nil, "empty.csv")
	require.Error(t, err)
	assert.True(t, data.IsValidation(err))
	assert.Empty(t, e.History())
}

func TestPredictionsWithoutBatch(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.Predictions()
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestPredictionsRescoreLatestBatch(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.ProcessBatch(batch(), "readings.csv")
	require.NoError(t, err)

	result, err := e.Predictions()
	require.NoError(t, err)
	require.Len(t, result.Predictions, 2)
	assert.Equal(t, "Reactor B", result.Summary.HighestRiskEquipment)
	assert.Equal(t, 1, result.Summary.Critical)
	assert.Equal(t, 1, result.Summary.Healthy)
}

func TestPredictionsFollowPolicyChanges(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.ProcessBatch(batch(), "readings.csv")
	require.NoError(t, err)

	// Relax the thresholds far beyond the readings: everything is healthy.
	relaxed := risk.ThresholdPolicy{
		PressureWarning: 500, PressureCritical: 600,
		TemperatureWarning: 500, TemperatureCritical: 600,
		FlowrateMin: 0, FlowrateMax: 1000,
	}
	require.NoError(t, e.UpdatePolicy(relaxed))

	result, err := e.Predictions()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Critical)
	assert.Equal(t, 2, result.Summary.Healthy)
}

func TestUpdatePolicyRejectsInvalid(t *testing.T) {
	e, _ := newTestEngine()
	bad := risk.DefaultPolicy()
	bad.PressureWarning = bad.PressureCritical + 10

	err := e.UpdatePolicy(bad)
	assert.True(t, data.IsValidation(err))
	assert.Equal(t, risk.DefaultPolicy(), e.Policy())
}

func TestAutoScheduleWithoutBatch(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.AutoSchedule()
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestAutoScheduleFromLatestBatch(t *testing.T) {
	e, scheduler := newTestEngine()
	_, err := e.ProcessBatch(batch(), "readings.csv")
	require.NoError(t, err)

	created, err := e.AutoSchedule()
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Reactor B", created[0].EquipmentName)
	assert.Equal(t, maintenance.PriorityCritical, created[0].Priority)

	// Second pass dedups against the open task.
	again, err := e.AutoSchedule()
	require.NoError(t, err)
	assert.Empty(t, again)

	tasks, _ := scheduler.List(maintenance.Filters{})
	assert.Len(t, tasks, 1)
}

func TestHistoryRetentionAcrossBatches(t *testing.T) {
	e, _ := newTestEngine()
	for i := 0; i < 6; i++ {
		batchTime := testNow.Add(time.Duration(i) * time.Hour)
		e.now = func() time.Time { return batchTime }
		_, err := e.ProcessBatch(batch(), "readings.csv")
		require.NoError(t, err)
	}

	history := e.History()
	require.Len(t, history, 5)
	// The oldest batch was evicted.
	oldest := history[len(history)-1]
	assert.Equal(t, testNow.Add(time.Hour), oldest.Summary.CreatedAt)
}
