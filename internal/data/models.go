package data

import "time"

// Required batch columns, exact names as supplied by the ingestion source.
const (
	ColEquipmentName = "Equipment Name"
	ColType          = "Type"
	ColFlowrate      = "Flowrate"
	ColPressure      = "Pressure"
	ColTemperature   = "Temperature"
)

// RequiredColumns in the order they are reported when missing.
var RequiredColumns = []string{ColEquipmentName, ColType, ColFlowrate, ColPressure, ColTemperature}

// Reading is one sensor row for a named equipment unit. Immutable once recorded.
type Reading struct {
	EquipmentName string    `json:"equipment_name"`
	EquipmentType string    `json:"equipment_type"`
	Pressure      float64   `json:"pressure"`
	Temperature   float64   `json:"temperature"`
	Flowrate      float64   `json:"flowrate"`
	Timestamp     time.Time `json:"timestamp"`
}
