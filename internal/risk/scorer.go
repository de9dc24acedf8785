package risk

import (
	"fmt"
	"math"
	"time"

	"equipment-risk-gateway/internal/data"
)

// Tier classifies a single reading's failure risk.
type Tier string

const (
	TierHealthy  Tier = "healthy"
	TierModerate Tier = "moderate"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

// Assessment is the derived risk output for one reading. Recomputed on
// demand from a Reading plus the current policy, never stored on its own.
type Assessment struct {
	EquipmentName     string   `json:"equipment_name"`
	EquipmentType     string   `json:"type"`
	Pressure          float64  `json:"pressure"`
	Temperature       float64  `json:"temperature"`
	Flowrate          float64  `json:"flowrate"`
	Score             float64  `json:"risk_score"`
	Tier              Tier     `json:"risk_level"`
	MaintenanceInDays int      `json:"maintenance_in_days"`
	MaintenanceDate   string   `json:"maintenance_date"`
	Factors           []string `json:"risk_factors"`
}

// Assess scores one reading against the policy. Deterministic and
// side-effect-free: the per-channel contributions are additive, each
// channel is capped on its own, and the sum is clamped to [0,100].
// All band comparisons are strict, so a value exactly on the critical
// boundary scores through the warning-band interpolation.
func Assess(r data.Reading, p ThresholdPolicy, now time.Time) Assessment {
	var score float64
	var factors []string

	if r.Pressure > p.PressureCritical {
		score += math.Min(40, (r.Pressure-p.PressureCritical)*2)
		factors = append(factors, fmt.Sprintf("High pressure (%g bar)", r.Pressure))
	} else if r.Pressure > p.PressureWarning {
		score += (r.Pressure - p.PressureWarning) / (p.PressureCritical - p.PressureWarning) * 20
		factors = append(factors, fmt.Sprintf("Elevated pressure (%g bar)", r.Pressure))
	}

	if r.Temperature > p.TemperatureCritical {
		score += math.Min(40, (r.Temperature-p.TemperatureCritical)*1.5)
		factors = append(factors, fmt.Sprintf("High temperature (%g°C)", r.Temperature))
	} else if r.Temperature > p.TemperatureWarning {
		score += (r.Temperature - p.TemperatureWarning) / (p.TemperatureCritical - p.TemperatureWarning) * 20
		factors = append(factors, fmt.Sprintf("Elevated temperature (%g°C)", r.Temperature))
	}

	if r.Flowrate < p.FlowrateMin {
		score += math.Min(20, (p.FlowrateMin-r.Flowrate)*0.5)
		factors = append(factors, fmt.Sprintf("Low flowrate (%g L/h)", r.Flowrate))
	} else if r.Flowrate > p.FlowrateMax {
		score += math.Min(20, (r.Flowrate-p.FlowrateMax)*0.3)
		factors = append(factors, fmt.Sprintf("High flowrate (%g L/h)", r.Flowrate))
	}

	score = math.Min(100, math.Max(0, score))

	tier, days := classify(score)
	return Assessment{
		EquipmentName:     r.EquipmentName,
		EquipmentType:     r.EquipmentType,
		Pressure:          r.Pressure,
		Temperature:       r.Temperature,
		Flowrate:          r.Flowrate,
		Score:             math.Round(score*10) / 10,
		Tier:              tier,
		MaintenanceInDays: days,
		MaintenanceDate:   now.AddDate(0, 0, days).Format("2006-01-02"),
		Factors:           factors,
	}
}

// classify maps a clamped score to its tier and recommended days until
// maintenance. Thresholds are checked in descending order.
func classify(score float64) (Tier, int) {
	switch {
	case score >= 70:
		return TierCritical, max(1, int(7-(score-70)/10))
	case score >= 40:
		return TierWarning, max(7, int(30-(score-40)/2))
	case score >= 20:
		return TierModerate, max(30, int(60-score))
	default:
		return TierHealthy, max(60, int(90-score))
	}
}
