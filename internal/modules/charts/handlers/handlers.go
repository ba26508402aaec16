// Package handlers provides HTTP handlers for chart rendering.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/backtest"
	backtesthandlers "github.com/aristath/allocator/internal/modules/backtest/handlers"
	"github.com/aristath/allocator/internal/modules/charts"
)

// Handler handles chart HTTP requests
type Handler struct {
	runs     backtesthandlers.RunSource
	backtest *backtest.Service
	charts   *charts.Service
	log      zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(runs backtesthandlers.RunSource, backtestSvc *backtest.Service, chartsSvc *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		runs:     runs,
		backtest: backtestSvc,
		charts:   chartsSvc,
		log:      log.With().Str("handler", "charts").Logger(),
	}
}

// RegisterRoutes registers all chart routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/charts", func(r chi.Router) {
		r.Get("/comparison", h.HandleComparison)
	})
}

// HandleComparison handles GET /api/charts/comparison?uuid=...
// Renders the optimized-vs-equal-weight growth curves as a PNG. When uuid is
// omitted the most recent run is used.
func (h *Handler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	report, err := backtesthandlers.BuildReport(h.runs, h.backtest, r.URL.Query().Get("uuid"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build comparison report")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	buf, err := h.charts.RenderComparison(report)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render comparison chart")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf)
}
