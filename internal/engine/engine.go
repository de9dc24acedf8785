package engine

import (
	"sync"
	"time"

	"equipment-risk-gateway/internal/alerting"
	"equipment-risk-gateway/internal/analyzer"
	"equipment-risk-gateway/internal/data"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/risk"
	"equipment-risk-gateway/internal/storage"
	"equipment-risk-gateway/internal/websocket"
)

// Engine ties the scoring, retention, trend and scheduling components into
// batch-level units of work. A batch is processed to completion under one
// writer lock, so a concurrent reader never observes a half-applied batch
// and the retention eviction stays atomic with its count check.
type Engine struct {
	mu        sync.RWMutex
	policy    *storage.PolicyStore
	history   *storage.HistoryStore
	series    *storage.TimeSeriesStore
	scheduler *maintenance.Scheduler
	alerter   *alerting.Alerter
	hub       *websocket.Hub

	now func() time.Time
}

func New(policy *storage.PolicyStore, history *storage.HistoryStore, series *storage.TimeSeriesStore,
	scheduler *maintenance.Scheduler, alerter *alerting.Alerter, hub *websocket.Hub) *Engine {
	return &Engine{
		policy:    policy,
		history:   history,
		series:    series,
		scheduler: scheduler,
		alerter:   alerter,
		hub:       hub,
		now:       time.Now,
	}
}

// ProcessBatch analyzes a validated batch, retains the summary, appends
// every reading to the time series, and evaluates alerts. Alert delivery
// failure never fails the batch: once the summary is retained, the batch
// counts as processed.
func (e *Engine) ProcessBatch(readings []data.Reading, filename string) (storage.HistoryRecord, error) {
	e.mu.Lock()
	summary, err := analyzer.Analyze(readings, e.policy.Get(), e.now())
	if err != nil {
		e.mu.Unlock()
		return storage.HistoryRecord{}, err
	}
	record := e.history.Insert(filename, summary)
	for _, r := range readings {
		e.series.Append(r)
	}
	e.mu.Unlock()

	if e.alerter != nil {
		e.alerter.BatchProcessed(filename, summary)
	}
	if e.hub != nil {
		e.hub.Broadcast("batch", record)
	}
	return record, nil
}

// History lists the retained batch records, newest first.
func (e *Engine) History() []storage.HistoryRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.ListRecent()
}

// PredictionsResult is the rescoring of the most recent batch against the
// current policy.
type PredictionsResult struct {
	Predictions []risk.Assessment  `json:"predictions"`
	Summary     PredictionOverview `json:"summary"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type PredictionOverview struct {
	Total                int    `json:"total"`
	Critical             int    `json:"critical"`
	Warning              int    `json:"warning"`
	Healthy              int    `json:"healthy"`
	HighestRiskEquipment string `json:"highest_risk_equipment,omitempty"`
	NextMaintenanceDate  string `json:"next_maintenance_date,omitempty"`
}

// Predictions rescores the latest batch with whatever the policy is now.
// Returns data.ErrNotFound when no batch has been ingested.
func (e *Engine) Predictions() (PredictionsResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	latest, err := e.history.MostRecent()
	if err != nil {
		return PredictionsResult{}, err
	}

	now := e.now()
	assessments := analyzer.Assess(latest.Summary.Readings, e.policy.Get(), now)

	overview := PredictionOverview{Total: len(assessments)}
	for _, a := range assessments {
		switch a.Tier {
		case risk.TierCritical:
			overview.Critical++
		case risk.TierWarning:
			overview.Warning++
		case risk.TierHealthy:
			overview.Healthy++
		}
	}
	if len(assessments) > 0 {
		overview.HighestRiskEquipment = assessments[0].EquipmentName
		overview.NextMaintenanceDate = assessments[0].MaintenanceDate
	}

	return PredictionsResult{Predictions: assessments, Summary: overview, GeneratedAt: now}, nil
}

// TrendsResult groups historical series and their trend classification.
type TrendsResult struct {
	EquipmentList []string                  `json:"equipment_list"`
	History       []storage.EquipmentSeries `json:"history"`
	Trends        []storage.TrendSummary    `json:"trends"`
	PeriodDays    int                       `json:"period_days"`
}

// Trends queries the per-equipment time series over a day lookback.
func (e *Engine) Trends(equipmentName string, days int) TrendsResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	series, trends := e.series.Query(equipmentName, days, e.now())
	return TrendsResult{
		EquipmentList: e.series.EquipmentNames(),
		History:       series,
		Trends:        trends,
		PeriodDays:    days,
	}
}

// AutoSchedule rescores the latest batch and creates maintenance tasks for
// every critical or warning unit that has no open task yet. Returns
// data.ErrNotFound when no batch has been ingested.
func (e *Engine) AutoSchedule() ([]maintenance.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	latest, err := e.history.MostRecent()
	if err != nil {
		return nil, err
	}
	assessments := analyzer.Assess(latest.Summary.Readings, e.policy.Get(), e.now())
	return e.scheduler.AutoSchedule(assessments), nil
}

// Policy returns the current threshold policy.
func (e *Engine) Policy() risk.ThresholdPolicy {
	return e.policy.Get()
}

// PolicyUpdatedAt reports when the policy last changed.
func (e *Engine) PolicyUpdatedAt() time.Time {
	return e.policy.UpdatedAt()
}

// UpdatePolicy validates and stores a new threshold policy.
func (e *Engine) UpdatePolicy(p risk.ThresholdPolicy) error {
	return e.policy.Update(p)
}
