package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-risk-gateway/internal/alerting"
	"equipment-risk-gateway/internal/auth"
	"equipment-risk-gateway/internal/engine"
	"equipment-risk-gateway/internal/maintenance"
	"equipment-risk-gateway/internal/risk"
	"equipment-risk-gateway/internal/storage"
)

const testAPIKey = "test-key"

func newTestServers(t *testing.T) (*httptest.Server, *httptest.Server) {
	t.Helper()

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)
	authManager := auth.NewManager(auth.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: 5,
		APIKeys:       []string{testAPIKey},
		Users:         []auth.User{{Username: "ops", PasswordHash: hash, Role: "admin"}},
	})

	scheduler := maintenance.NewScheduler()
	settings := alerting.NewSettingsStore(alerting.DefaultSettings())
	alerter := alerting.NewAlerter(settings, alerting.LogMailer{}, nil)
	eng := engine.New(
		storage.NewPolicyStore(risk.DefaultPolicy()),
		storage.NewHistoryStore(),
		storage.NewTimeSeriesStore(),
		scheduler, alerter, nil,
	)
	handler := NewHandler(eng, scheduler, alerter, settings, authManager, nil)

	dataSrv := httptest.NewServer(NewDataRouter(handler, authManager))
	mgmtSrv := httptest.NewServer(NewManagementRouter(handler, authManager))
	t.Cleanup(dataSrv.Close)
	t.Cleanup(mgmtSrv.Close)
	return dataSrv, mgmtSrv
}

func ingestBatch(t *testing.T, dataSrv *httptest.Server) map[string]any {
	t.Helper()
	body := `[
		{"Equipment Name":"Tank A","Type":"Tank","Flowrate":100,"Pressure":50,"Temperature":60},
		{"Equipment Name":"Reactor B","Type":"Reactor","Flowrate":250,"Pressure":120,"Temperature":180}
	]`
	req, err := http.NewRequest(http.MethodPost, dataSrv.URL+"/data", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var summary map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	return summary
}

func TestIngestRequiresAPIKey(t *testing.T) {
	dataSrv, _ := newTestServers(t)

	resp, err := http.Post(dataSrv.URL+"/data", "application/json", strings.NewReader("[]"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestReturnsSummary(t *testing.T) {
	dataSrv, _ := newTestServers(t)
	summary := ingestBatch(t, dataSrv)

	assert.Equal(t, float64(2), summary["total_count"])
	assert.Equal(t, float64(90), summary["health_score"])
}

func TestIngestMissingColumns(t *testing.T) {
	dataSrv, _ := newTestServers(t)

	req, err := http.NewRequest(http.MethodPost, dataSrv.URL+"/data",
		strings.NewReader(`[{"Equipment Name":"Tank A","Type":"Tank"}]`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Contains(t, payload["error"], "Pressure")
}

func TestIngestCSVBody(t *testing.T) {
	dataSrv, _ := newTestServers(t)
	body := "Equipment Name,Type,Flowrate,Pressure,Temperature\nTank A,Tank,100,50,60\n"

	req, err := http.NewRequest(http.MethodPost, dataSrv.URL+"/data", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestPredictionsBeforeAnyBatch(t *testing.T) {
	_, mgmtSrv := newTestServers(t)

	resp, err := http.Get(mgmtSrv.URL + "/api/predictions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPredictionsAfterIngest(t *testing.T) {
	dataSrv, mgmtSrv := newTestServers(t)
	ingestBatch(t, dataSrv)

	resp, err := http.Get(mgmtSrv.URL + "/api/predictions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Summary struct {
			Total                int    `json:"total"`
			Critical             int    `json:"critical"`
			HighestRiskEquipment string `json:"highest_risk_equipment"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 2, payload.Summary.Total)
	assert.Equal(t, 1, payload.Summary.Critical)
	assert.Equal(t, "Reactor B", payload.Summary.HighestRiskEquipment)
}

func TestThresholdUpdateRequiresToken(t *testing.T) {
	_, mgmtSrv := newTestServers(t)

	req, err := http.NewRequest(http.MethodPut, mgmtSrv.URL+"/api/thresholds",
		bytes.NewReader([]byte(`{"pressure_warning": 75}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestThresholdUpdateWithToken(t *testing.T) {
	_, mgmtSrv := newTestServers(t)

	loginResp, err := http.Post(mgmtSrv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"ops","password":"hunter2"}`))
	require.NoError(t, err)
	defer loginResp.Body.Close()
	require.Equal(t, http.StatusOK, loginResp.StatusCode)

	var login map[string]string
	require.NoError(t, json.NewDecoder(loginResp.Body).Decode(&login))
	require.NotEmpty(t, login["token"])

	req, err := http.NewRequest(http.MethodPut, mgmtSrv.URL+"/api/thresholds",
		strings.NewReader(`{"pressure_warning": 75}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+login["token"])

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, float64(75), payload["pressure_warning"])
}

func TestMaintenanceLifecycleOverHTTP(t *testing.T) {
	_, mgmtSrv := newTestServers(t)

	createResp, err := http.Post(mgmtSrv.URL+"/api/maintenance", "application/json",
		strings.NewReader(`{"equipment_name":"Reactor B","title":"Inspect seals","scheduled_date":"2030-01-15"}`))
	require.NoError(t, err)
	defer createResp.Body.Close()
	require.Equal(t, http.StatusCreated, createResp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(createResp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	listResp, err := http.Get(mgmtSrv.URL + "/api/maintenance")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var listing struct {
		Schedules []maintenance.Task       `json:"schedules"`
		Summary   maintenance.StatusCounts `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listing))
	require.Len(t, listing.Schedules, 1)
	assert.Equal(t, 1, listing.Summary.Scheduled)

	req, err := http.NewRequest(http.MethodDelete, mgmtSrv.URL+"/api/maintenance/"+created.ID, nil)
	require.NoError(t, err)
	deleteResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer deleteResp.Body.Close()
	assert.Equal(t, http.StatusOK, deleteResp.StatusCode)

	missingResp, err := http.Get(mgmtSrv.URL + "/api/maintenance/" + created.ID)
	require.NoError(t, err)
	defer missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
}

func TestAutoScheduleEndpoint(t *testing.T) {
	dataSrv, mgmtSrv := newTestServers(t)
	ingestBatch(t, dataSrv)

	resp, err := http.Post(mgmtSrv.URL+"/api/maintenance/auto-schedule", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload struct {
		Schedules []maintenance.Task `json:"schedules"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Schedules, 1)
	assert.Equal(t, "Reactor B", payload.Schedules[0].EquipmentName)
}
