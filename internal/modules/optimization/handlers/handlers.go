// Package handlers provides HTTP handlers for optimization operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/optimization"
	"github.com/aristath/allocator/internal/modules/returns"
)

// Handler handles optimization HTTP requests
type Handler struct {
	service *optimization.Service
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(service *optimization.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// OptimizeRequest represents a request to run an optimization
type OptimizeRequest struct {
	Symbols []string `json:"symbols"` // empty = every stored symbol
}

// OptimizeResponse wraps a solved run
type OptimizeResponse struct {
	UUID   string               `json:"uuid"`
	Result *optimization.Result `json:"result"`
}

// HandleOptimize handles POST /api/optimization/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	runUUID, result, err := h.service.Run(r.Context(), req.Symbols)
	if err != nil {
		h.log.Error().Err(err).Msg("Optimization run failed")

		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, returns.ErrInfeasibleInput):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, optimization.ErrNotConverged),
			errors.Is(err, optimization.ErrInfeasibleResult):
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, OptimizeResponse{UUID: runUUID, Result: result})
}

// HandleListRuns handles GET /api/optimization/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Runs(20)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*optimization.RunRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGetRun handles GET /api/optimization/runs/{uuid}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runUUID := chi.URLParam(r, "uuid")
	record, err := h.service.GetRun(runUUID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
