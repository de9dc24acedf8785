package risk

import (
	"equipment-risk-gateway/internal/data"
)

// ThresholdPolicy holds the six configurable scoring boundaries.
// One value flows through every scoring call; nothing in this package
// reads thresholds from ambient state.
type ThresholdPolicy struct {
	PressureWarning     float64 `json:"pressure_warning" mapstructure:"pressure_warning"`
	PressureCritical    float64 `json:"pressure_critical" mapstructure:"pressure_critical"`
	TemperatureWarning  float64 `json:"temperature_warning" mapstructure:"temperature_warning"`
	TemperatureCritical float64 `json:"temperature_critical" mapstructure:"temperature_critical"`
	FlowrateMin         float64 `json:"flowrate_min" mapstructure:"flowrate_min"`
	FlowrateMax         float64 `json:"flowrate_max" mapstructure:"flowrate_max"`
}

// DefaultPolicy returns the boundary values used until an operator updates them.
func DefaultPolicy() ThresholdPolicy {
	return ThresholdPolicy{
		PressureWarning:     70,
		PressureCritical:    80,
		TemperatureWarning:  120,
		TemperatureCritical: 150,
		FlowrateMin:         50,
		FlowrateMax:         300,
	}
}

// Validate rejects policies that would make the scoring bands nonsensical.
// Scoring never runs against a policy where a warning bound exceeds its
// critical bound.
func (p ThresholdPolicy) Validate() error {
	var bad []string
	if p.PressureWarning > p.PressureCritical {
		bad = append(bad, "pressure_warning")
	}
	if p.TemperatureWarning > p.TemperatureCritical {
		bad = append(bad, "temperature_warning")
	}
	if p.FlowrateMin > p.FlowrateMax {
		bad = append(bad, "flowrate_min")
	}
	if len(bad) > 0 {
		return data.NewValidationError("warning threshold exceeds critical threshold", bad...)
	}
	return nil
}
