package alerting

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"equipment-risk-gateway/internal/analyzer"
	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/websocket"
)

// Alert kinds.
const (
	KindCritical    = "critical"
	KindWarning     = "warning"
	KindMaintenance = "maintenance"
)

var subjects = map[string]string{
	KindCritical:    "CRITICAL: Equipment Alert",
	KindWarning:     "WARNING: Equipment Alert",
	KindMaintenance: "Maintenance Reminder",
}

// Mailer dispatches one alert email. Implementations live at the system
// boundary; the alerter only cares about success or failure.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogEntry records one dispatch attempt, successful or not.
type LogEntry struct {
	ID            string    `json:"id"`
	Kind          string    `json:"alert_type"`
	EquipmentName string    `json:"equipment_name"`
	Message       string    `json:"message"`
	SentTo        string    `json:"sent_to"`
	SentAt        time.Time `json:"sent_at"`
	WasSuccessful bool      `json:"was_successful"`
}

// Alerter evaluates alert conditions after batch processing and task
// creation, dispatches email through the Mailer, fans alerts out over the
// websocket hub, and keeps a log of every attempt. Nothing here ever
// returns an error to the caller: a failed dispatch is logged and batch
// processing carries on.
type Alerter struct {
	settings *SettingsStore
	mailer   Mailer
	hub      *websocket.Hub

	mu  sync.RWMutex
	log []LogEntry
}

func NewAlerter(settings *SettingsStore, mailer Mailer, hub *websocket.Hub) *Alerter {
	return &Alerter{settings: settings, mailer: mailer, hub: hub}
}

// BatchProcessed fires critical and warning alerts for a freshly analyzed
// batch, per the current settings.
func (a *Alerter) BatchProcessed(filename string, summary analyzer.BatchSummary) {
	cfg := a.settings.Get()
	if !cfg.EmailEnabled || cfg.EmailAddress == "" {
		return
	}

	if cfg.AlertOnCritical && len(summary.CriticalItems) > 0 {
		names := equipmentNames(summary.CriticalItems, 5)
		message := fmt.Sprintf(
			"CRITICAL ALERT: %d equipment require immediate attention!\n\nEquipment: %s\n\nUpload: %s\nHealth Score: %d%%",
			len(summary.CriticalItems), strings.Join(names, ", "), filename, summary.HealthScore)
		a.Notify(KindCritical, fmt.Sprintf("%d equipment", len(summary.CriticalItems)), message, cfg.EmailAddress)
	}

	if cfg.AlertOnWarning && len(summary.WarningItems) > 0 {
		names := equipmentNames(summary.WarningItems, 5)
		message := fmt.Sprintf(
			"WARNING: %d equipment have elevated readings.\n\nEquipment: %s\n\nUpload: %s",
			len(summary.WarningItems), strings.Join(names, ", "), filename)
		a.Notify(KindWarning, fmt.Sprintf("%d equipment", len(summary.WarningItems)), message, cfg.EmailAddress)
	}
}

// TaskScheduled fires a maintenance reminder for a newly created task.
func (a *Alerter) TaskScheduled(task maintenance.Task) {
	cfg := a.settings.Get()
	if !cfg.EmailEnabled || !cfg.AlertOnMaintenanceDue || cfg.EmailAddress == "" {
		return
	}
	message := fmt.Sprintf(
		"New maintenance scheduled: %s\n\nEquipment: %s\nDate: %s\nPriority: %s\n\nDescription: %s",
		task.Title, task.EquipmentName, task.ScheduledDate, task.Priority, task.Description)
	a.Notify(KindMaintenance, task.EquipmentName, message, cfg.EmailAddress)
}

// Notify dispatches one alert and records the outcome. The returned flag
// reports delivery success; failures never propagate as errors.
func (a *Alerter) Notify(kind, equipmentName, message, to string) bool {
	subject, ok := subjects[kind]
	if !ok {
		subject = "Alert"
	}
	subject = fmt.Sprintf("%s - %s", subject, equipmentName)

	var sendErr error
	if a.mailer != nil {
		sendErr = a.mailer.Send(to, subject, message)
	}
	if sendErr != nil {
		log.Printf("alert delivery failed (%s to %s): %v", kind, to, sendErr)
	}

	entry := LogEntry{
		ID:            uuid.NewString(),
		Kind:          kind,
		EquipmentName: equipmentName,
		Message:       message,
		SentTo:        to,
		SentAt:        time.Now(),
		WasSuccessful: sendErr == nil,
	}

	a.mu.Lock()
	a.log = append(a.log, entry)
	a.mu.Unlock()
	a.settings.markAlertSent(entry.SentAt)

	if a.hub != nil {
		a.hub.Broadcast("alert", entry)
	}
	return entry.WasSuccessful
}

// RecentLog returns up to limit entries, newest first.
func (a *Alerter) RecentLog(limit int) []LogEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 || limit > len(a.log) {
		limit = len(a.log)
	}
	out := make([]LogEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = a.log[len(a.log)-1-i]
	}
	return out
}

func equipmentNames(readings []data.Reading, limit int) []string {
	names := make([]string, 0, limit)
	for _, r := range readings {
		if len(names) == limit {
			break
		}
		names = append(names, r.EquipmentName)
	}
	return names
}
