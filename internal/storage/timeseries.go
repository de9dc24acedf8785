package storage

import (
	"sort"
	"sync"
	"time"

	"equipment-risk-gateway/internal/data"
)

// maxSeriesPoints caps how many points a query returns per equipment.
// The underlying log itself is never truncated.
const maxSeriesPoints = 100

// SeriesPoint is one historical measurement for an equipment unit.
type SeriesPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Pressure    float64   `json:"pressure"`
	Temperature float64   `json:"temperature"`
	Flowrate    float64   `json:"flowrate"`
}

// EquipmentSeries groups the queried points of one equipment unit,
// newest first.
type EquipmentSeries struct {
	EquipmentName string        `json:"equipment_name"`
	EquipmentType string        `json:"equipment_type"`
	DataPoints    []SeriesPoint `json:"data_points"`
}

// TrendSummary classifies pressure and temperature movement over the
// queried window. Only produced when the window holds at least 2 points.
type TrendSummary struct {
	EquipmentName    string `json:"equipment_name"`
	PressureTrend    string `json:"pressure_trend"`
	TemperatureTrend string `json:"temperature_trend"`
	DataPointsCount  int    `json:"data_points_count"`
}

// TimeSeriesStore keeps a per-equipment append-only log of readings for
// trend analysis.
type TimeSeriesStore struct {
	mu     sync.RWMutex
	series map[string]*equipmentLog
	names  []string // insertion order, for stable listings
}

type equipmentLog struct {
	equipmentType string
	points        []SeriesPoint // append order = oldest first
}

func NewTimeSeriesStore() *TimeSeriesStore {
	return &TimeSeriesStore{series: make(map[string]*equipmentLog)}
}

// Append records one reading in the equipment's log.
func (s *TimeSeriesStore) Append(r data.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.series[r.EquipmentName]
	if !ok {
		log = &equipmentLog{equipmentType: r.EquipmentType}
		s.series[r.EquipmentName] = log
		s.names = append(s.names, r.EquipmentName)
	}
	log.points = append(log.points, SeriesPoint{
		Timestamp:   r.Timestamp,
		Pressure:    r.Pressure,
		Temperature: r.Temperature,
		Flowrate:    r.Flowrate,
	})
}

// EquipmentNames lists every equipment unit that has at least one point.
func (s *TimeSeriesStore) EquipmentNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.names))
	copy(out, s.names)
	sort.Strings(out)
	return out
}

// Query returns the most recent points per equipment within the lookback
// window, newest first, capped at maxSeriesPoints per equipment, plus a
// trend classification for every equipment with at least 2 points in the
// window. An empty equipmentName matches all equipment.
func (s *TimeSeriesStore) Query(equipmentName string, days int, now time.Time) ([]EquipmentSeries, []TrendSummary) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := now.AddDate(0, 0, -days)
	var series []EquipmentSeries
	var trends []TrendSummary

	for _, name := range s.names {
		if equipmentName != "" && name != equipmentName {
			continue
		}
		log := s.series[name]

		var window []SeriesPoint
		for i := len(log.points) - 1; i >= 0 && len(window) < maxSeriesPoints; i-- {
			p := log.points[i]
			if p.Timestamp.Before(cutoff) {
				continue
			}
			window = append(window, p)
		}
		if len(window) == 0 {
			continue
		}

		series = append(series, EquipmentSeries{
			EquipmentName: name,
			EquipmentType: log.equipmentType,
			DataPoints:    window,
		})
		if len(window) >= 2 {
			newest, oldest := window[0], window[len(window)-1]
			trends = append(trends, TrendSummary{
				EquipmentName:    name,
				PressureTrend:    classifyTrend(oldest.Pressure, newest.Pressure),
				TemperatureTrend: classifyTrend(oldest.Temperature, newest.Temperature),
				DataPointsCount:  len(window),
			})
		}
	}
	return series, trends
}

// classifyTrend compares the newest value against the oldest with a 5%
// dead band on either side.
func classifyTrend(oldest, newest float64) string {
	switch {
	case newest > oldest*1.05:
		return "increasing"
	case newest < oldest*0.95:
		return "decreasing"
	default:
		return "stable"
	}
}
