package maintenance

import (
	"fmt"
	"strings"
	"time"
)

// Priority of a maintenance task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Status of a maintenance task.
//
// Transitions: scheduled → in_progress → completed; scheduled → cancelled;
// scheduled → overdue happens automatically at query time once the
// scheduled date has passed; overdue → in_progress/completed/cancelled are
// manual. completed and cancelled are terminal.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
)

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Task is one maintenance work item for an equipment unit.
type Task struct {
	ID                string     `json:"id"`
	EquipmentName     string     `json:"equipment_name"`
	EquipmentType     string     `json:"equipment_type"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	ScheduledDate     Date       `json:"scheduled_date"`
	ScheduledTime     string     `json:"scheduled_time,omitempty"` // HH:MM
	Priority          Priority   `json:"priority"`
	Status            Status     `json:"status"`
	AssignedTo        string     `json:"assigned_to"`
	EstimatedDuration int        `json:"estimated_duration"` // minutes
	Notes             string     `json:"notes"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// StatusCounts aggregates the task population by status.
type StatusCounts struct {
	Total         int `json:"total"`
	Scheduled     int `json:"scheduled"`
	InProgress    int `json:"in_progress"`
	Completed     int `json:"completed"`
	Overdue       int `json:"overdue"`
	Upcoming7Days int `json:"upcoming_7_days"`
}
