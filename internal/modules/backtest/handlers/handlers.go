// Package handlers provides HTTP handlers for backtest reports.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/backtest"
	"github.com/aristath/allocator/internal/modules/optimization"
	"github.com/aristath/allocator/internal/modules/returns"
)

// RunSource provides persisted optimization runs and their price history.
type RunSource interface {
	GetRun(runUUID string) (*optimization.RunRecord, error)
	Runs(limit int) ([]*optimization.RunRecord, error)
	BuildMatrix(symbols []string) (*returns.Matrix, error)
}

// Handler handles backtest HTTP requests
type Handler struct {
	runs RunSource
	svc  *backtest.Service
	log  zerolog.Logger
}

// NewHandler creates a new backtest handler
func NewHandler(runs RunSource, svc *backtest.Service, log zerolog.Logger) *Handler {
	return &Handler{
		runs: runs,
		svc:  svc,
		log:  log.With().Str("handler", "backtest").Logger(),
	}
}

// RegisterRoutes registers all backtest routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/backtest", func(r chi.Router) {
		r.Get("/report", h.HandleReport)
	})
}

// HandleReport handles GET /api/backtest/report?uuid=...
// When uuid is omitted the most recent run is used.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	report, err := BuildReport(h.runs, h.svc, r.URL.Query().Get("uuid"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build backtest report")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}

// BuildReport resolves a run (latest when runUUID is empty), replays its
// weights over the stored price history and compares against equal weight.
func BuildReport(runs RunSource, svc *backtest.Service, runUUID string) (*backtest.Report, error) {
	var (
		record *optimization.RunRecord
		err    error
	)

	if runUUID == "" {
		latest, err := runs.Runs(1)
		if err != nil {
			return nil, err
		}
		if len(latest) == 0 {
			return nil, fmt.Errorf("no optimization runs available")
		}
		record = latest[0]
	} else {
		record, err = runs.GetRun(runUUID)
		if err != nil {
			return nil, err
		}
	}

	matrix, err := runs.BuildMatrix(record.Symbols)
	if err != nil {
		return nil, err
	}

	return svc.Compare(matrix, record.Weights)
}
