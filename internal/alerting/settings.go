package alerting

import (
	"sync"
	"time"
)

// Settings controls when alerts are dispatched and where.
type Settings struct {
	EmailEnabled            bool   `json:"email_enabled" mapstructure:"email_enabled"`
	EmailAddress            string `json:"email_address" mapstructure:"email_address"`
	AlertOnCritical         bool   `json:"alert_on_critical" mapstructure:"alert_on_critical"`
	AlertOnWarning          bool   `json:"alert_on_warning" mapstructure:"alert_on_warning"`
	AlertOnMaintenanceDue   bool   `json:"alert_on_maintenance_due" mapstructure:"alert_on_maintenance_due"`
	MaintenanceReminderDays int    `json:"maintenance_reminder_days" mapstructure:"maintenance_reminder_days"`
}

// DefaultSettings: everything on but no destination, so nothing is sent
// until an operator sets an address.
func DefaultSettings() Settings {
	return Settings{
		AlertOnCritical:         true,
		AlertOnWarning:          true,
		AlertOnMaintenanceDue:   true,
		MaintenanceReminderDays: 3,
	}
}

// SettingsStore holds the current alert settings.
type SettingsStore struct {
	mu        sync.RWMutex
	settings  Settings
	updatedAt time.Time
	lastAlert time.Time
}

func NewSettingsStore(initial Settings) *SettingsStore {
	return &SettingsStore{settings: initial, updatedAt: time.Now()}
}

func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) Update(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.updatedAt = time.Now()
}

func (s *SettingsStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func (s *SettingsStore) LastAlertSent() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAlert
}

func (s *SettingsStore) markAlertSent(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAlert = t
}
