package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go-cost-insights/internal/checkpoint"
	"go-cost-insights/internal/engine"
	"go-cost-insights/internal/loader"
	"go-cost-insights/internal/model"
	"go-cost-insights/internal/store"
	"go-cost-insights/pkg/utils"

	"github.com/google/uuid"
)

// RunHandler serves the analysis run API. All collaborators are injected;
// there is no package-level state.
type RunHandler struct {
	store    *store.Store
	coord    *checkpoint.Coordinator
	registry *engine.Registry
}

func NewRunHandler(st *store.Store, coord *checkpoint.Coordinator, registry *engine.Registry) *RunHandler {
	return &RunHandler{store: st, coord: coord, registry: registry}
}

// CreateRunRequest is the payload for starting a run. Records may be posted
// inline or referenced by a dataset file path on the server.
type CreateRunRequest struct {
	Records     []model.WorkloadRecord `json:"records,omitempty"`
	DatasetPath string                 `json:"dataset_path,omitempty"`
	Config      model.AnalysisConfig   `json:"config"`
	Timeout     string                 `json:"timeout,omitempty"` // e.g. "5m"
}

// CreateRun starts a new analysis run
// @Summary Create a new analysis run
// @Description Start an asynchronous analysis over inline workload records or a server-side dataset file
// @Tags runs
// @Accept json
// @Produce json
// @Param run body CreateRunRequest true "Records and analysis configuration"
// @Success 200 {object} map[string]interface{} "Run created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if len(req.Records) == 0 && req.DatasetPath != "" {
		records, err := loader.LoadFile(req.DatasetPath)
		if err != nil {
			http.Error(w, "Failed to load dataset: "+err.Error(), http.StatusBadRequest)
			return
		}
		req.Records = records
	}
	if len(req.Records) == 0 {
		http.Error(w, "At least one record is required", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()

	if err := h.store.SaveRun(runID, req.Config, len(req.Records)); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.ParseDuration(req.Timeout))
	h.registry.Add(runID, cancel)

	go func() {
		defer cancel()
		defer h.registry.Remove(runID)

		h.store.UpdateRunStatus(runID, "running")
		result, metrics, err := engine.Run(ctx, runID, req.Records, req.Config, h.coord)
		if err != nil {
			h.store.UpdateRunStatus(runID, "failed")
			h.store.SaveRunError(runID, err)
			return
		}
		h.store.SaveResult(runID, result, metrics)
		h.store.UpdateRunStatus(runID, statusFor(result))
	}()

	resp := map[string]interface{}{
		"message":   "Analysis run created successfully!",
		"runID":     runID,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func statusFor(result *model.AnalysisResult) string {
	switch result.Diagnostics.Status {
	case model.StatusPartial:
		return "partial"
	case model.StatusFailed:
		return "failed"
	default:
		return "completed"
	}
}

// ListRuns retrieves all analysis runs
// @Summary List all runs
// @Description Get a list of all analysis runs with their current status
// @Tags runs
// @Accept json
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun retrieves a specific run
// @Summary Get run
// @Description Retrieve the configuration and status of a specific run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "")
	if !ok {
		return
	}

	run, err := h.store.GetRun(runID)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetRunResult retrieves a run's result
// @Summary Get run result
// @Description Retrieve the analysis result and stage metrics for a run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run result"
// @Failure 404 {object} map[string]interface{} "Result not available"
// @Router /runs/{id}/result [get]
func (h *RunHandler) GetRunResult(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/result")
	if !ok {
		return
	}

	result, metrics, err := h.store.GetResult(runID)
	if err != nil {
		http.Error(w, "Result not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":  runID,
		"result":  result,
		"metrics": metrics,
	})
}

// GetRunErrors retrieves errors for a run
// @Summary Get run errors
// @Description Retrieve all errors recorded during a run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/errors [get]
func (h *RunHandler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/errors")
	if !ok {
		return
	}

	errs, err := h.store.GetRunErrors(runID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": runID,
		"errors": errs,
		"count":  len(errs),
	})
}

// GetRunCheckpoints surfaces the latest checkpoint per stage
// @Summary Get run checkpoints
// @Description Retrieve the newest checkpoint snapshot for each stage of a run, for resume decisions
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Checkpoints by stage"
// @Router /runs/{id}/checkpoints [get]
func (h *RunHandler) GetRunCheckpoints(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/checkpoints")
	if !ok {
		return
	}

	snapshots := make(map[string]*checkpoint.Snapshot)
	for _, stage := range checkpoint.Stages {
		snap, err := h.coord.LastCheckpoint(r.Context(), runID, stage)
		if err != nil || snap == nil {
			continue
		}
		snapshots[string(stage)] = snap
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":      runID,
		"checkpoints": snapshots,
	})
}

// CancelRun cancels an in-flight run
// @Summary Cancel run
// @Description Request cooperative cancellation of a running analysis
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Cancellation requested"
// @Failure 404 {object} map[string]interface{} "No active run"
// @Router /runs/{id}/cancel [post]
func (h *RunHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := runIDFromPath(w, r, "/cancel")
	if !ok {
		return
	}

	if !h.registry.Cancel(runID) {
		http.Error(w, "No active run with that ID", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":  runID,
		"message": "Cancellation requested",
	})
}

// runIDFromPath extracts the run ID between the API prefix and the given
// suffix, writing a 400 response when the path does not match.
func runIDFromPath(w http.ResponseWriter, r *http.Request, suffix string) (string, bool) {
	path := r.URL.Path
	prefix := "/api/v1/runs/"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return "", false
	}

	runID := path[len(prefix) : len(path)-len(suffix)]
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return "", false
	}
	return runID, true
}
