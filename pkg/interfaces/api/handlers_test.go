package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/memory"
)

// newTestServer serves the two-line baseline: L1 rate 5, L2 rate 10,
// 8 hours in M1 and M2, baseline demand 200 in M1
func newTestServer(t *testing.T, loaded bool) http.Handler {
	t.Helper()
	repo := memory.NewBaselineRepository()
	if loaded {
		require.NoError(t, repo.LoadBaseline(entities.PlanInput{
			Demand: []entities.DemandEntry{{Product: "P", Month: "M1", Quantity: 200}},
			Rates: []entities.RateEntry{
				{Line: "L1", Product: "P", Rate: 5},
				{Line: "L2", Product: "P", Rate: 10},
			},
			Calendar: []entities.CalendarEntry{
				{Month: "M1", AvailableTime: 8},
				{Month: "M2", AvailableTime: 8},
			},
		}))
	}

	return New(Config{
		Log:       zerolog.Nop(),
		Baseline:  repo,
		Planning:  services.PlanningOptions{},
		Precision: 2,
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodePlan(t *testing.T, rec *httptest.ResponseRecorder) *dto.PlanResult {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result dto.PlanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return &result
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, HealthResponse{Status: "ok", Baseline: false, Policy: "greedy"}, resp)
}

func TestGetBaseline(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodGet, "/api/baseline", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, newTestServer(t, true), http.MethodGet, "/api/baseline", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp BaselineResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"M1", "M2"}, resp.Months)
	assert.Len(t, resp.Rates, 2)
	require.Len(t, resp.Demand, 1)
	assert.Equal(t, map[string]float64{"M1": 200}, resp.Demand[0].Quantities)
	assert.Nil(t, resp.Demand[0].Priority)
}

func TestRunPlan_BaselineDemand(t *testing.T) {
	result := decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan", "application/json", ""))

	assert.InDelta(t, 80, result.Allocated("P", "L2", "M1"), 1e-9)
	assert.InDelta(t, 40, result.Allocated("P", "L1", "M1"), 1e-9)
	fill, ok := result.FillRate("P", "M1")
	require.True(t, ok)
	assert.InDelta(t, 0.6, fill, 1e-9)
	assert.NotEmpty(t, result.RunID)
}

func TestRunPlan_EditedGridReplacesBaseline(t *testing.T) {
	body := `{"demand":[{"product":"P","quantities":{"M2":50}},{"product":"Q","priority":1,"quantities":{"M1":0}}]}`
	result := decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan", "application/json", body))

	// baseline demand for M1 is gone
	fill, _ := result.FillRate("P", "M1")
	assert.Equal(t, 1.0, fill)
	assert.InDelta(t, 50, result.Allocated("P", "L2", "M2"), 1e-9)
	assert.Equal(t, []entities.ProductID{"P", "Q"}, result.Metadata.Products)
}

func TestRunPlan_EmptyGridPlansNoDemand(t *testing.T) {
	h := newTestServer(t, true)

	for _, body := range []string{
		`{"demand":[]}`,
		`{"demand":[{"product":"","quantities":{}}]}`,
	} {
		result := decodePlan(t, do(t, h, http.MethodPost, "/api/plan", "application/json", body))

		assert.Empty(t, result.Allocations, body)
		assert.Empty(t, result.Metadata.Products, body)
		assert.Equal(t, 0.0, result.Metadata.TotalDemand, body)
		assert.Equal(t, 1.0, result.Metadata.OverallFillRate, body)
	}
}

func TestRunPlan_BlankRowIsReported(t *testing.T) {
	body := `{"demand":[{"product":"P","quantities":{"M1":50}},{"product":"NEW","quantities":{}}]}`
	result := decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan", "application/json", body))

	assert.Equal(t, []entities.ProductID{"NEW", "P"}, result.Metadata.Products)
	for _, month := range []entities.Month{"M1", "M2"} {
		fill, ok := result.FillRate("NEW", month)
		require.True(t, ok, month)
		assert.Equal(t, 1.0, fill)
	}
	assert.InDelta(t, 50, result.Metadata.TotalDemand, 1e-9)

	// a grid of blank rows still replaces the baseline
	body = `{"demand":[{"product":"NEW"}]}`
	result = decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan", "application/json", body))
	assert.Equal(t, []entities.ProductID{"NEW"}, result.Metadata.Products)
	assert.Equal(t, 0.0, result.Metadata.TotalDemand)
	assert.Len(t, result.FillRates, 2)
	assert.Len(t, result.Shortfalls, 2)
}

func TestRunPlan_LPPolicy(t *testing.T) {
	result := decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan?policy=lp", "application/json", ""))

	assert.Equal(t, "lp", result.Metadata.Policy)
	assert.InDelta(t, 120, result.Metadata.TotalAllocated, 1e-6)
}

func TestRunPlan_CSVBody(t *testing.T) {
	body := "product,M1,M2\nP,10,20\n"
	result := decodePlan(t, do(t, newTestServer(t, true), http.MethodPost, "/api/plan", "text/csv; charset=utf-8", body))

	assert.InDelta(t, 30, result.Metadata.TotalDemand, 1e-9)
	assert.Equal(t, 1.0, result.Metadata.OverallFillRate)
}

func TestRunPlan_Errors(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"unknown month", "/api/plan", "application/json", `{"demand":[{"product":"P","quantities":{"M9":1}}]}`, http.StatusUnprocessableEntity},
		{"negative demand", "/api/plan", "application/json", `{"demand":[{"product":"P","quantities":{"M1":-1}}]}`, http.StatusUnprocessableEntity},
		{"unknown policy", "/api/plan", "application/json", `{"policy":"random"}`, http.StatusUnprocessableEntity},
		{"malformed json", "/api/plan", "application/json", `{"demand":`, http.StatusBadRequest},
		{"malformed csv", "/api/plan", "text/csv", "sku,M1\nP,1\n", http.StatusBadRequest},
	}

	h := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRunPlan_NoBaseline(t *testing.T) {
	rec := do(t, newTestServer(t, false), http.MethodPost, "/api/plan", "application/json", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExportTable(t *testing.T) {
	h := newTestServer(t, true)

	rec := do(t, h, http.MethodPost, "/api/plan/export/fill_rates", "application/json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=fill_rates.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t,
		"product,month,demand,allocated,fill_rate\nP,M1,200.00,120.00,0.60\nP,M2,0.00,0.00,1.00\n",
		rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/plan/export/allocations", "application/json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "product,line,month,quantity\nP,L1,M1,40.00\nP,L2,M1,80.00\n", rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/plan/export/orders", "application/json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlanRequest_ToDemandOrdersByHorizon(t *testing.T) {
	one := 1
	req := PlanRequest{Demand: []DemandRowDTO{
		{Product: "P", Priority: &one, Quantities: map[string]float64{"M2": 2, "M1": 1, "X": 3}},
	}}

	entries, priorities := req.toDemand([]entities.Month{"M1", "M2"})
	assert.Equal(t, []entities.DemandEntry{
		{Product: "P", Month: "M1", Quantity: 1},
		{Product: "P", Month: "M2", Quantity: 2},
		{Product: "P", Month: "X", Quantity: 3},
	}, entries)
	assert.Equal(t, entities.Priorities{"P": 1}, priorities)
}

func TestPlanRequest_ToDemandGridPresence(t *testing.T) {
	months := []entities.Month{"M1", "M2"}

	entries, priorities := PlanRequest{}.toDemand(months)
	assert.Nil(t, entries)
	assert.Nil(t, priorities)

	entries, _ = PlanRequest{Demand: []DemandRowDTO{}}.toDemand(months)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	entries, _ = PlanRequest{Demand: []DemandRowDTO{{Product: "NEW"}}}.toDemand(months)
	assert.Equal(t, []entities.DemandEntry{
		{Product: "NEW", Month: "M1"},
		{Product: "NEW", Month: "M2"},
	}, entries)
}
