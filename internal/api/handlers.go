package api

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	gwebsocket "github.com/gorilla/websocket"

	"equipment-risk-gateway/internal/alerting"
	"equipment-risk-gateway/internal/auth"
	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/engine"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/websocket"

	"github.com/go-chi/chi/v5"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler exposes the engine over HTTP.
type Handler struct {
	engine    *engine.Engine
	scheduler *maintenance.Scheduler
	alerter   *alerting.Alerter
	settings  *alerting.SettingsStore
	auth      *auth.Manager
	hub       *websocket.Hub
}

func NewHandler(eng *engine.Engine, scheduler *maintenance.Scheduler, alerter *alerting.Alerter,
	settings *alerting.SettingsStore, authManager *auth.Manager, hub *websocket.Hub) *Handler {
	return &Handler{
		engine:    eng,
		scheduler: scheduler,
		alerter:   alerter,
		settings:  settings,
		auth:      authManager,
		hub:       hub,
	}
}

// HandleIngest accepts one batch of readings as JSON, CSV, or a multipart
// CSV upload, and runs the full processing unit of work.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	now := time.Now()
	filename := "batch"
	var readings []data.Reading
	var err error

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "multipart/form-data":
		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			writeError(w, data.NewValidationError("no file uploaded"))
			return
		}
		defer file.Close()
		filename = header.Filename
		readings, err = data.ParseCSV(file, now)
	case mediaType == "text/csv":
		filename = "batch.csv"
		readings, err = data.ParseCSV(r.Body, now)
	default:
		filename = "batch.json"
		readings, err = data.ParseJSON(r.Body, now)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := h.engine.ProcessBatch(readings, filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record.Summary)
}

// HandleHistory lists retained batch summaries, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.History())
}

func (h *Handler) HandleGetThresholds(w http.ResponseWriter, r *http.Request) {
	policy := h.engine.Policy()
	writeJSON(w, http.StatusOK, map[string]any{
		"pressure_warning":     policy.PressureWarning,
		"pressure_critical":    policy.PressureCritical,
		"temperature_warning":  policy.TemperatureWarning,
		"temperature_critical": policy.TemperatureCritical,
		"flowrate_min":         policy.FlowrateMin,
		"flowrate_max":         policy.FlowrateMax,
		"updated_at":           h.engine.PolicyUpdatedAt(),
	})
}

type thresholdUpdate struct {
	PressureWarning     *float64 `json:"pressure_warning"`
	PressureCritical    *float64 `json:"pressure_critical"`
	TemperatureWarning  *float64 `json:"temperature_warning"`
	TemperatureCritical *float64 `json:"temperature_critical"`
	FlowrateMin         *float64 `json:"flowrate_min"`
	FlowrateMax         *float64 `json:"flowrate_max"`
}

// HandleUpdateThresholds applies a partial threshold update. The merged
// policy must validate before it replaces the stored one.
func (h *Handler) HandleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var in thresholdUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, data.NewValidationError("invalid JSON body"))
		return
	}

	policy := h.engine.Policy()
	applyFloat(&policy.PressureWarning, in.PressureWarning)
	applyFloat(&policy.PressureCritical, in.PressureCritical)
	applyFloat(&policy.TemperatureWarning, in.TemperatureWarning)
	applyFloat(&policy.TemperatureCritical, in.TemperatureCritical)
	applyFloat(&policy.FlowrateMin, in.FlowrateMin)
	applyFloat(&policy.FlowrateMax, in.FlowrateMax)

	if err := h.engine.UpdatePolicy(policy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":              "Thresholds updated successfully",
		"pressure_warning":     policy.PressureWarning,
		"pressure_critical":    policy.PressureCritical,
		"temperature_warning":  policy.TemperatureWarning,
		"temperature_critical": policy.TemperatureCritical,
		"flowrate_min":         policy.FlowrateMin,
		"flowrate_max":         policy.FlowrateMax,
	})
}

// HandlePredictions rescores the latest batch with the current policy.
func (h *Handler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Predictions()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleTrends serves per-equipment series and trend classification.
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, data.NewValidationError("invalid numeric value", "days"))
			return
		}
		days = parsed
	}
	writeJSON(w, http.StatusOK, h.engine.Trends(r.URL.Query().Get("equipment"), days))
}

// HandleListTasks lists maintenance tasks with filters and status counts.
// The overdue sweep runs as part of the listing.
func (h *Handler) HandleListTasks(w http.ResponseWriter, r *http.Request) {
	filters := maintenance.Filters{
		Status:    maintenance.Status(r.URL.Query().Get("status")),
		Equipment: r.URL.Query().Get("equipment"),
	}
	if raw := r.URL.Query().Get("upcoming_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, data.NewValidationError("invalid numeric value", "upcoming_days"))
			return
		}
		filters.UpcomingDays = parsed
	}

	tasks, counts := h.scheduler.List(filters)
	writeJSON(w, http.StatusOK, map[string]any{
		"schedules": tasks,
		"summary":   counts,
	})
}

// HandleCreateTask creates a maintenance task and may fire a maintenance
// reminder alert.
func (h *Handler) HandleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in maintenance.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, data.NewValidationError("invalid JSON body"))
		return
	}
	task, err := h.scheduler.Create(in)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.alerter != nil {
		h.alerter.TaskScheduled(task)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":       task.ID,
		"message":  "Maintenance scheduled successfully",
		"schedule": task,
	})
}

func (h *Handler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.scheduler.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) HandleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in maintenance.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, data.NewValidationError("invalid JSON body"))
		return
	}
	task, err := h.scheduler.Update(chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Schedule updated successfully",
		"id":      task.ID,
		"status":  task.Status,
	})
}

func (h *Handler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Schedule deleted successfully"})
}

// HandleAutoSchedule creates tasks from the latest batch's assessments.
func (h *Handler) HandleAutoSchedule(w http.ResponseWriter, r *http.Request) {
	created, err := h.engine.AutoSchedule()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Created " + strconv.Itoa(len(created)) + " maintenance schedules",
		"schedules": created,
	})
}

func (h *Handler) HandleGetAlertSettings(w http.ResponseWriter, r *http.Request) {
	settings := h.settings.Get()
	writeJSON(w, http.StatusOK, map[string]any{
		"email_enabled":             settings.EmailEnabled,
		"email_address":             settings.EmailAddress,
		"alert_on_critical":         settings.AlertOnCritical,
		"alert_on_warning":          settings.AlertOnWarning,
		"alert_on_maintenance_due":  settings.AlertOnMaintenanceDue,
		"maintenance_reminder_days": settings.MaintenanceReminderDays,
		"last_alert_sent":           h.settings.LastAlertSent(),
		"updated_at":                h.settings.UpdatedAt(),
	})
}

type alertSettingsUpdate struct {
	EmailEnabled            *bool   `json:"email_enabled"`
	EmailAddress            *string `json:"email_address"`
	AlertOnCritical         *bool   `json:"alert_on_critical"`
	AlertOnWarning          *bool   `json:"alert_on_warning"`
	AlertOnMaintenanceDue   *bool   `json:"alert_on_maintenance_due"`
	MaintenanceReminderDays *int    `json:"maintenance_reminder_days"`
}

func (h *Handler) HandleUpdateAlertSettings(w http.ResponseWriter, r *http.Request) {
	var in alertSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, data.NewValidationError("invalid JSON body"))
		return
	}

	settings := h.settings.Get()
	if in.EmailEnabled != nil {
		settings.EmailEnabled = *in.EmailEnabled
	}
	if in.EmailAddress != nil {
		settings.EmailAddress = *in.EmailAddress
	}
	if in.AlertOnCritical != nil {
		settings.AlertOnCritical = *in.AlertOnCritical
	}
	if in.AlertOnWarning != nil {
		settings.AlertOnWarning = *in.AlertOnWarning
	}
	if in.AlertOnMaintenanceDue != nil {
		settings.AlertOnMaintenanceDue = *in.AlertOnMaintenanceDue
	}
	if in.MaintenanceReminderDays != nil {
		settings.MaintenanceReminderDays = *in.MaintenanceReminderDays
	}
	h.settings.Update(settings)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Alert settings updated successfully",
		"email_enabled": settings.EmailEnabled,
		"email_address": settings.EmailAddress,
	})
}

func (h *Handler) HandleAlertLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, h.alerter.RecentLog(limit))
}

// HandleTestAlert dispatches a test alert to the configured address.
func (h *Handler) HandleTestAlert(w http.ResponseWriter, r *http.Request) {
	settings := h.settings.Get()
	if !settings.EmailEnabled || settings.EmailAddress == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Email alerts not configured. Enable them and set an address first.",
		})
		return
	}
	success := h.alerter.Notify(alerting.KindCritical, "Test Equipment",
		"This is a test alert from the equipment risk gateway. If you received this, alerting is working.",
		settings.EmailAddress)
	message := "Test alert sent successfully!"
	if !success {
		message = "Failed to send test alert. Check the SMTP configuration."
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": success, "message": message})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin issues a management-API token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, data.NewValidationError("invalid JSON body"))
		return
	}
	role, err := h.auth.Authenticate(in.Username, in.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	token, err := h.auth.GenerateToken(in.Username, role)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "role": role})
}

// HandleWebSocket upgrades a dashboard connection and registers it with
// the hub.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	client := &websocket.Client{Hub: h.hub, Conn: conn, Send: make(chan []byte, 256)}
	h.hub.RegisterClient(client)
	go client.WritePump()
	go client.ReadPump()
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

// writeError maps engine error kinds to HTTP statuses: validation failures
// are 400 with the offending fields, missing records are 404.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case data.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, data.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
