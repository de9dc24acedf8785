package maintenance

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/risk"
)

const defaultDurationMinutes = 60

// autoScheduleHorizonDays caps how far out an auto-generated task may be
// scheduled, even when the risk ETA is longer.
const autoScheduleHorizonDays = 7

// Scheduler owns the maintenance task store and its state machine.
// The dedup check and creation in AutoSchedule run under one lock, so
// concurrent batch ingestions cannot create duplicate open tasks for the
// same equipment.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string // creation order

	now func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[string]*Task), now: time.Now}
}

// CreateInput carries the fields accepted when creating a task.
type CreateInput struct {
	EquipmentName     string   `json:"equipment_name"`
	EquipmentType     string   `json:"equipment_type"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ScheduledDate     string   `json:"scheduled_date"`
	ScheduledTime     string   `json:"scheduled_time"`
	Priority          Priority `json:"priority"`
	AssignedTo        string   `json:"assigned_to"`
	EstimatedDuration int      `json:"estimated_duration"`
	Notes             string   `json:"notes"`
}

// Create validates the required fields and stores a new task in the
// scheduled state.
func (s *Scheduler) Create(in CreateInput) (Task, error) {
	var missing []string
	if in.EquipmentName == "" {
		missing = append(missing, "equipment_name")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.ScheduledDate == "" {
		missing = append(missing, "scheduled_date")
	}
	if len(missing) > 0 {
		return Task{}, data.NewValidationError("missing required fields", missing...)
	}

	scheduledDate, err := ParseDate(in.ScheduledDate)
	if err != nil {
		return Task{}, data.NewValidationError(err.Error(), "scheduled_date")
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	duration := in.EstimatedDuration
	if duration <= 0 {
		duration = defaultDurationMinutes
	}

	now := s.now()
	task := Task{
		ID:                uuid.NewString(),
		EquipmentName:     in.EquipmentName,
		EquipmentType:     in.EquipmentType,
		Title:             in.Title,
		Description:       in.Description,
		ScheduledDate:     scheduledDate,
		ScheduledTime:     in.ScheduledTime,
		Priority:          priority,
		Status:            StatusScheduled,
		AssignedTo:        in.AssignedTo,
		EstimatedDuration: duration,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(task)
	return task, nil
}

// AutoSchedule creates tasks for every critical or warning assessment that
// has no open task yet. An equipment unit with a scheduled or in-progress
// task is skipped, so at most one open task per equipment exists at a
// time. Returns only the newly created tasks.
func (s *Scheduler) AutoSchedule(assessments []risk.Assessment) []Task {
	now := s.now()
	today := NewDate(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []Task
	for _, a := range assessments {
		if a.Tier != risk.TierCritical && a.Tier != risk.TierWarning {
			continue
		}
		if s.hasOpenTaskLocked(a.EquipmentName) {
			continue
		}

		priority := PriorityHigh
		if a.Tier == risk.TierCritical {
			priority = PriorityCritical
		}
		days := a.MaintenanceInDays
		if days > autoScheduleHorizonDays {
			days = autoScheduleHorizonDays
		}

		factors := "None"
		if len(a.Factors) > 0 {
			factors = strings.Join(a.Factors, ", ")
		}

		task := Task{
			ID:            uuid.NewString(),
			EquipmentName: a.EquipmentName,
			EquipmentType: a.EquipmentType,
			Title:         fmt.Sprintf("Predicted Maintenance - %s Risk", titleCase(string(a.Tier))),
			Description: fmt.Sprintf("Auto-generated from risk assessment.\n\nRisk Score: %g%%\nRisk Factors: %s",
				a.Score, factors),
			ScheduledDate:     NewDate(today.AddDate(0, 0, days)),
			Priority:          priority,
			Status:            StatusScheduled,
			EstimatedDuration: defaultDurationMinutes,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		s.insertLocked(task)
		created = append(created, task)
	}
	return created
}

// Filters narrow a task listing.
type Filters struct {
	Status       Status
	Equipment    string // substring match, case-insensitive
	UpcomingDays int    // 0 disables the window filter
}

// List runs the overdue sweep, then returns the matching tasks in creation
// order together with status counts over the whole population.
func (s *Scheduler) List(f Filters) ([]Task, StatusCounts) {
	now := s.now()
	today := NewDate(now)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepOverdueLocked(today, now)

	var out []Task
	var counts StatusCounts
	for _, id := range s.order {
		t := s.tasks[id]

		counts.Total++
		switch t.Status {
		case StatusScheduled:
			counts.Scheduled++
		case StatusInProgress:
			counts.InProgress++
		case StatusCompleted:
			counts.Completed++
		case StatusOverdue:
			counts.Overdue++
		}
		if (t.Status == StatusScheduled || t.Status == StatusInProgress) &&
			!t.ScheduledDate.Before(today.Time) &&
			!t.ScheduledDate.After(today.AddDate(0, 0, 7)) {
			counts.Upcoming7Days++
		}

		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Equipment != "" && !strings.Contains(strings.ToLower(t.EquipmentName), strings.ToLower(f.Equipment)) {
			continue
		}
		if f.UpcomingDays > 0 {
			end := today.AddDate(0, 0, f.UpcomingDays)
			if t.ScheduledDate.Before(today.Time) || t.ScheduledDate.After(end) {
				continue
			}
		}
		out = append(out, *t)
	}
	return out, counts
}

// Get returns one task by id, after the overdue sweep.
func (s *Scheduler) Get(id string) (Task, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepOverdueLocked(NewDate(now), now)

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, data.ErrNotFound
	}
	return *t, nil
}

// UpdateInput carries a partial task update; nil fields are left unchanged.
type UpdateInput struct {
	EquipmentName     *string   `json:"equipment_name"`
	EquipmentType     *string   `json:"equipment_type"`
	Title             *string   `json:"title"`
	Description       *string   `json:"description"`
	ScheduledDate     *string   `json:"scheduled_date"`
	ScheduledTime     *string   `json:"scheduled_time"`
	Priority          *Priority `json:"priority"`
	Status            *Status   `json:"status"`
	AssignedTo        *string   `json:"assigned_to"`
	EstimatedDuration *int      `json:"estimated_duration"`
	Notes             *string   `json:"notes"`
}

// Update applies the provided fields. Setting status to completed on a
// task that was not already completed stamps CompletedAt.
func (s *Scheduler) Update(id string, in UpdateInput) (Task, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, data.ErrNotFound
	}

	if in.EquipmentName != nil {
		t.EquipmentName = *in.EquipmentName
	}
	if in.EquipmentType != nil {
		t.EquipmentType = *in.EquipmentType
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.ScheduledDate != nil {
		d, err := ParseDate(*in.ScheduledDate)
		if err != nil {
			return Task{}, data.NewValidationError(err.Error(), "scheduled_date")
		}
		t.ScheduledDate = d
	}
	if in.ScheduledTime != nil {
		t.ScheduledTime = *in.ScheduledTime
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil && *in.Status != t.Status {
		// completed and cancelled are terminal.
		if t.Status == StatusCompleted || t.Status == StatusCancelled {
			return Task{}, data.NewValidationError(
				fmt.Sprintf("cannot change status of a %s task", t.Status), "status")
		}
		if *in.Status == StatusCompleted {
			completed := now
			t.CompletedAt = &completed
		}
		t.Status = *in.Status
	}
	if in.AssignedTo != nil {
		t.AssignedTo = *in.AssignedTo
	}
	if in.EstimatedDuration != nil {
		t.EstimatedDuration = *in.EstimatedDuration
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
	t.UpdatedAt = now
	return *t, nil
}

// Delete removes a task.
func (s *Scheduler) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return data.ErrNotFound
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// sweepOverdueLocked flips scheduled tasks whose date has passed into
// overdue. Runs lazily on every query; there is no background timer, so a
// task only reads as overdue once something looks at the store.
func (s *Scheduler) sweepOverdueLocked(today Date, now time.Time) {
	for _, t := range s.tasks {
		if t.Status == StatusScheduled && t.ScheduledDate.Before(today.Time) {
			t.Status = StatusOverdue
			t.UpdatedAt = now
		}
	}
}

func (s *Scheduler) hasOpenTaskLocked(equipmentName string) bool {
	for _, t := range s.tasks {
		if t.EquipmentName == equipmentName &&
			(t.Status == StatusScheduled || t.Status == StatusInProgress) {
			return true
		}
	}
	return false
}

func (s *Scheduler) insertLocked(task Task) {
	t := task
	s.tasks[t.ID] = &t
	s.order = append(s.order, t.ID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
