package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-risk-gateway/internal/data"
)

var seriesNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func point(name string, pressure, temperature float64, at time.Time) data.Reading {
	return data.Reading{
		EquipmentName: name,
		EquipmentType: "Pump",
		Pressure:      pressure,
		Temperature:   temperature,
		Flowrate:      100,
		Timestamp:     at,
	}
}

func TestQueryTrendIncreasing(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 100, 60, seriesNow.Add(-48*time.Hour)))
	store.Append(point("Pump A", 106, 60, seriesNow.Add(-1*time.Hour)))

	_, trends := store.Query("", 30, seriesNow)
	require.Len(t, trends, 1)
	assert.Equal(t, "increasing", trends[0].PressureTrend) // 106 > 100*1.05
	assert.Equal(t, "stable", trends[0].TemperatureTrend)
	assert.Equal(t, 2, trends[0].DataPointsCount)
}

func TestQueryTrendStableWithinDeadBand(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 100, 60, seriesNow.Add(-48*time.Hour)))
	store.Append(point("Pump A", 104, 60, seriesNow.Add(-1*time.Hour)))

	_, trends := store.Query("", 30, seriesNow)
	require.Len(t, trends, 1)
	assert.Equal(t, "stable", trends[0].PressureTrend) // 104 <= 105
}

func TestQueryTrendDecreasing(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 100, 80, seriesNow.Add(-48*time.Hour)))
	store.Append(point("Pump A", 100, 70, seriesNow.Add(-1*time.Hour)))

	_, trends := store.Query("", 30, seriesNow)
	require.Len(t, trends, 1)
	assert.Equal(t, "decreasing", trends[0].TemperatureTrend) // 70 < 80*0.95
}

func TestQuerySinglePointHasNoTrend(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 100, 60, seriesNow.Add(-time.Hour)))

	series, trends := store.Query("", 30, seriesNow)
	assert.Len(t, series, 1)
	assert.Empty(t, trends)
}

func TestQueryLookbackWindowExcludesOldPoints(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 200, 60, seriesNow.Add(-40*24*time.Hour)))
	store.Append(point("Pump A", 100, 60, seriesNow.Add(-2*time.Hour)))
	store.Append(point("Pump A", 101, 60, seriesNow.Add(-1*time.Hour)))

	series, trends := store.Query("Pump A", 30, seriesNow)
	require.Len(t, series, 1)
	assert.Len(t, series[0].DataPoints, 2)
	// Baseline is the oldest point inside the window, not the 40-day-old one.
	require.Len(t, trends, 1)
	assert.Equal(t, "stable", trends[0].PressureTrend)
}

func TestQueryFiltersByEquipmentName(t *testing.T) {
	store := NewTimeSeriesStore()
	store.Append(point("Pump A", 100, 60, seriesNow.Add(-time.Hour)))
	store.Append(point("Pump B", 100, 60, seriesNow.Add(-time.Hour)))

	series, _ := store.Query("Pump B", 30, seriesNow)
	require.Len(t, series, 1)
	assert.Equal(t, "Pump B", series[0].EquipmentName)

	assert.Equal(t, []string{"Pump A", "Pump B"}, store.EquipmentNames())
}

func TestQueryCapsAt100PointsNewestFirst(t *testing.T) {
	store := NewTimeSeriesStore()
	for i := 0; i < 120; i++ {
		at := seriesNow.Add(-time.Duration(120-i) * time.Minute)
		store.Append(point("Pump A", float64(i), 60, at))
	}

	series, _ := store.Query("Pump A", 30, seriesNow)
	require.Len(t, series, 1)
	require.Len(t, series[0].DataPoints, 100)
	// Newest first: the most recent append (pressure 119) leads.
	assert.Equal(t, 119.0, series[0].DataPoints[0].Pressure)
	assert.Equal(t, 20.0, series[0].DataPoints[99].Pressure)
}

func TestAppendKeepsFullLog(t *testing.T) {
	store := NewTimeSeriesStore()
	for i := 0; i < 150; i++ {
		store.Append(point("Pump A", float64(i), 60, seriesNow.Add(-time.Duration(150-i)*time.Minute)))
	}
	// The cap is query-time only; the log itself is never truncated.
	assert.Equal(t, 150, len(store.series["Pump A"].points))
}
