package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"beacon-sim/analysis"
	"beacon-sim/logger"
	"beacon-sim/models"
	"beacon-sim/repository"
	"beacon-sim/runner"
)

// Handler contains the HTTP handlers for the simulation report API
type Handler struct {
	Runner *runner.Runner
}

// NewHandler creates and returns a new Handler instance
func NewHandler(r *runner.Runner) *Handler {
	return &Handler{Runner: r}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateRun handles POST requests that execute and store a simulation run
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req runner.RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Logger.Error("Failed to decode run request", zap.Error(err))
			writeError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	run, err := h.Runner.Run(r.Context(), req, nil)
	if err != nil {
		logger.Logger.Error("Failed to run simulation", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Run completed successfully",
		"run":     run,
	})
}

// ListRuns returns every stored run record, oldest first
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runner.GetAllRuns()
	if err != nil {
		logger.Logger.Error("Failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run record
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := h.Runner.GetRun(id)
	if err != nil {
		logger.Logger.Debug("Failed to get run", zap.String("run_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetTicks returns the per-tick metrics of a run
func (h *Handler) GetTicks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ticks, err := h.Runner.GetTicks(id)
	if err != nil {
		logger.Logger.Debug("Failed to get ticks", zap.String("run_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ticks)
}

// GetEntities returns the final entity reports of a run; ?kind= filters them
func (h *Handler) GetEntities(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	kind := models.EntityKind(r.URL.Query().Get("kind"))
	entities, err := h.Runner.GetEntities(id, kind)
	if err != nil {
		logger.Logger.Debug("Failed to get entities", zap.String("run_id", id), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	if entities == nil {
		entities = []models.EntityReport{}
	}
	writeJSON(w, http.StatusOK, entities)
}

// GetAnalysis evaluates the analytical model; query parameters override the
// configured defaults
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	p, err := analysisParams(r, h.Runner.AnalysisParams())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.Runner.Analyze(p)
	if err != nil {
		logger.Logger.Debug("Rejected analysis parameters", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func analysisParams(r *http.Request, p analysis.Params) (analysis.Params, error) {
	q := r.URL.Query()
	ints := map[string]*int{
		"virtual_stakers": &p.VirtualStakers,
		"group_size":      &p.GroupSize,
		"shares_required": &p.SharesRequired,
	}
	for key, dst := range ints {
		if s := q.Get(key); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return p, fmt.Errorf("invalid %s: %q", key, s)
			}
			*dst = v
		}
	}
	floats := map[string]*float64{
		"adversary_power":     &p.AdversaryPower,
		"failure_probability": &p.FailureProbability,
		"death_probability":   &p.DeathProbability,
	}
	for key, dst := range floats {
		if s := q.Get(key); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return p, fmt.Errorf("invalid %s: %q", key, s)
			}
			*dst = v
		}
	}
	return p, nil
}
