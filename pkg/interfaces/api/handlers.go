package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vsinha/capplan/pkg/application/dto"
	"github.com/vsinha/capplan/pkg/application/services"
	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/domain/repositories"
	"github.com/vsinha/capplan/pkg/domain/services/allocation"
	"github.com/vsinha/capplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/capplan/pkg/interfaces/cli/output"
)

// Handler serves the planner API
type Handler struct {
	baseline  repositories.BaselineRepository
	planning  services.PlanningOptions
	precision int32
	loader    *csv.Loader
	log       zerolog.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	baseline repositories.BaselineRepository,
	planning services.PlanningOptions,
	precision int32,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		baseline:  baseline,
		planning:  planning,
		precision: precision,
		loader:    csv.NewLoader(),
		log:       log.With().Str("component", "api").Logger(),
	}
}

// Health reports liveness and whether a baseline is loaded
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.baseline.GetBaseline()
	policy := h.planning.Policy
	if policy == "" {
		policy = allocation.PolicyGreedy
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Baseline: err == nil,
		Policy:   string(policy),
	})
}

// GetBaseline returns the baseline rates, calendars and default demand
func (h *Handler) GetBaseline(w http.ResponseWriter, r *http.Request) {
	input, err := h.baseline.GetBaseline()
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBaselineResponse(input))
}

// RunPlan plans the posted demand against the baseline
func (h *Handler) RunPlan(w http.ResponseWriter, r *http.Request) {
	result, ok := h.plan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportTable plans the posted demand and returns one result table as CSV
func (h *Handler) ExportTable(w http.ResponseWriter, r *http.Request) {
	table, err := output.ParseTable(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown table", err)
		return
	}

	result, ok := h.plan(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": table.FileName()}))
	w.WriteHeader(http.StatusOK)
	if err := output.WriteTable(w, result, table, h.precision); err != nil {
		h.log.Error().Err(err).Str("table", string(table)).Msg("failed to write export")
	}
}

// plan decodes the request, runs the planner and writes any error reply.
// It reports false when a reply has already been written.
func (h *Handler) plan(w http.ResponseWriter, r *http.Request) (*dto.PlanResult, bool) {
	baseline, err := h.baseline.GetBaseline()
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}

	months := make([]entities.Month, len(baseline.Calendar))
	for i, c := range baseline.Calendar {
		months[i] = c.Month
	}

	req, demand, priorities, err := h.decode(w, r, months)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}

	input := baseline
	if demand != nil {
		input, err = h.baseline.WithDemand(demand, priorities)
		if err != nil {
			h.writeFailure(w, err)
			return nil, false
		}
	}

	opts := h.planning
	if req.Policy != "" {
		policy, err := allocation.ParsePolicy(req.Policy)
		if err != nil {
			h.writeFailure(w, err)
			return nil, false
		}
		opts.Policy = policy
	}

	planner, err := services.NewPlanningService(opts, h.log)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}

	result, err := planner.Plan(r.Context(), input)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	return result, true
}

// decode accepts a JSON PlanRequest or a demand CSV (long or wide form)
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, months []entities.Month) (PlanRequest, []entities.DemandEntry, entities.Priorities, error) {
	var req PlanRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		table, err := h.loader.ReadDemand(body)
		if err != nil {
			return req, nil, nil, err
		}
		req.Policy = r.URL.Query().Get("policy")
		priorities := table.Priorities
		if len(priorities) == 0 {
			priorities = nil
		}
		entries := table.Entries
		if entries == nil {
			entries = []entities.DemandEntry{}
		}
		return req, entries, priorities, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return req, nil, nil, err
	}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return req, nil, nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
	}
	if q := r.URL.Query().Get("policy"); q != "" && req.Policy == "" {
		req.Policy = q
	}

	demand, priorities := req.toDemand(months)
	return req, demand, priorities, nil
}

// writeFailure maps planner errors to status codes
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case entities.IsConfigError(err):
		writeError(w, http.StatusUnprocessableEntity, "Invalid planning input", err)
	case errors.Is(err, repositories.ErrNoBaseline):
		writeError(w, http.StatusServiceUnavailable, "No baseline loaded", err)
	default:
		h.log.Error().Err(err).Msg("planning failed")
		writeError(w, http.StatusInternalServerError, "Planning failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
