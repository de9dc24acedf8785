package analyzer

import (
	"sort"
	"time"

	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/risk"
)

// BatchSummary aggregates one ingested batch: channel means, a type
// histogram, the threshold partitions, an overall health score and the
// per-unit risk assessments sorted worst-first.
type BatchSummary struct {
	TotalCount       int                  `json:"total_count"`
	AvgFlowrate      float64              `json:"avg_flowrate"`
	AvgPressure      float64              `json:"avg_pressure"`
	AvgTemperature   float64              `json:"avg_temperature"`
	TypeDistribution map[string]int       `json:"type_distribution"`
	CriticalItems    []data.Reading       `json:"critical_items"`
	WarningItems     []data.Reading       `json:"warning_items"`
	HealthScore      int                  `json:"health_score"`
	Readings         []data.Reading       `json:"data"`
	Assessments      []risk.Assessment    `json:"predictions"`
	Prediction       PredictionSummary    `json:"prediction_summary"`
	ThresholdsUsed   risk.ThresholdPolicy `json:"thresholds_used"`
	CreatedAt        time.Time            `json:"created_at"`
}

// PredictionSummary condenses the assessment list for dashboards.
type PredictionSummary struct {
	CriticalCount      int              `json:"critical_count"`
	WarningCount       int              `json:"warning_count"`
	AvgMaintenanceDays float64          `json:"avg_maintenance_days"`
	NextMaintenance    string           `json:"next_maintenance,omitempty"`
	HighestRisk        *risk.Assessment `json:"highest_risk,omitempty"`
}

// Analyze computes the BatchSummary for a validated, non-empty batch.
// Partition membership is decided per channel independently: a reading
// critical on pressure and merely elevated on temperature appears in both
// partitions, and the health score weights it in both.
func Analyze(readings []data.Reading, policy risk.ThresholdPolicy, now time.Time) (BatchSummary, error) {
	if len(readings) == 0 {
		return BatchSummary{}, data.NewValidationError("empty batch")
	}

	summary := BatchSummary{
		TotalCount:       len(readings),
		TypeDistribution: make(map[string]int),
		Readings:         readings,
		ThresholdsUsed:   policy,
		CreatedAt:        now,
	}

	var sumFlow, sumPressure, sumTemp float64
	for _, r := range readings {
		sumFlow += r.Flowrate
		sumPressure += r.Pressure
		sumTemp += r.Temperature
		summary.TypeDistribution[r.EquipmentType]++

		if r.Pressure > policy.PressureCritical || r.Temperature > policy.TemperatureCritical {
			summary.CriticalItems = append(summary.CriticalItems, r)
		}
		if (r.Pressure > policy.PressureWarning && r.Pressure <= policy.PressureCritical) ||
			(r.Temperature > policy.TemperatureWarning && r.Temperature <= policy.TemperatureCritical) {
			summary.WarningItems = append(summary.WarningItems, r)
		}
	}

	n := float64(len(readings))
	summary.AvgFlowrate = sumFlow / n
	summary.AvgPressure = sumPressure / n
	summary.AvgTemperature = sumTemp / n
	summary.HealthScore = max(0, 100-10*len(summary.CriticalItems)-3*len(summary.WarningItems))

	summary.Assessments = Assess(readings, policy, now)
	summary.Prediction = summarizePredictions(summary.Assessments)
	return summary, nil
}

// Assess scores every reading and returns the assessments sorted by score
// descending. Ties keep input order.
func Assess(readings []data.Reading, policy risk.ThresholdPolicy, now time.Time) []risk.Assessment {
	assessments := make([]risk.Assessment, 0, len(readings))
	for _, r := range readings {
		assessments = append(assessments, risk.Assess(r, policy, now))
	}
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].Score > assessments[j].Score
	})
	return assessments
}

func summarizePredictions(assessments []risk.Assessment) PredictionSummary {
	var ps PredictionSummary
	if len(assessments) == 0 {
		return ps
	}
	var totalDays int
	for _, a := range assessments {
		totalDays += a.MaintenanceInDays
		switch a.Tier {
		case risk.TierCritical:
			ps.CriticalCount++
		case risk.TierWarning:
			ps.WarningCount++
		}
	}
	avg := float64(totalDays) / float64(len(assessments))
	ps.AvgMaintenanceDays = float64(int(avg*10+0.5)) / 10
	ps.NextMaintenance = assessments[0].MaintenanceDate
	highest := assessments[0]
	ps.HighestRisk = &highest
	return ps
}
