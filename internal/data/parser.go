package data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ParseRows converts raw batch rows into Readings. All five required columns
// must be present in every row and the three channel values must parse as
// numbers; violations abort the whole batch with a ValidationError before
// any scoring or persistence happens.
func ParseRows(rows []map[string]any, now time.Time) ([]Reading, error) {
	if len(rows) == 0 {
		return nil, NewValidationError("empty batch")
	}

	// Schema check against the first row, matching column names exactly.
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := rows[0][col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError("missing columns", missing...)
	}

	readings := make([]Reading, 0, len(rows))
	for i, row := range rows {
		r := Reading{
			EquipmentName: stringField(row, ColEquipmentName),
			EquipmentType: stringField(row, ColType),
			Timestamp:     now,
		}
		var err error
		if r.Flowrate, err = numericField(row, ColFlowrate); err != nil {
			return nil, rowError(i, err)
		}
		if r.Pressure, err = numericField(row, ColPressure); err != nil {
			return nil, rowError(i, err)
		}
		if r.Temperature, err = numericField(row, ColTemperature); err != nil {
			return nil, rowError(i, err)
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// ParseJSON decodes a JSON array of row objects into Readings.
func ParseJSON(body io.Reader, now time.Time) ([]Reading, error) {
	var rows []map[string]any
	if err := json.NewDecoder(body).Decode(&rows); err != nil {
		return nil, NewValidationError("invalid JSON body")
	}
	return ParseRows(rows, now)
}

// ParseCSV decodes a CSV body whose header row carries the required columns.
func ParseCSV(body io.Reader, now time.Time) ([]Reading, error) {
	reader := csv.NewReader(body)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, NewValidationError("invalid CSV body")
	}
	if len(records) < 2 {
		return nil, NewValidationError("empty batch")
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return ParseRows(rows, now)
}

func stringField(row map[string]any, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	return "Unknown"
}

func numericField(row map[string]any, col string) (float64, error) {
	switch v := row[col].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, NewValidationError("invalid numeric value", col)
		}
		return f, nil
	case nil:
		return 0, NewValidationError("missing value", col)
	default:
		return 0, NewValidationError("invalid numeric value", col)
	}
}

func rowError(i int, err error) error {
	if ve, ok := err.(*ValidationError); ok {
		return &ValidationError{Reason: fmt.Sprintf("row %d: %s", i+1, ve.Reason), Fields: ve.Fields}
	}
	return err
}
