package backtest

import (
	"fmt"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/returns"
	"github.com/aristath/allocator/pkg/formulas"
)

// Config holds the backtest constants.
type Config struct {
	RiskFreeRate       float64
	TradingDaysPerYear int
	// SmoothingWindow is the SMA window applied to the growth curves.
	// Zero disables smoothing.
	SmoothingWindow int
}

// PortfolioStats summarizes one portfolio over the historical window.
type PortfolioStats struct {
	Weights              []float64 `json:"weights"`
	AnnualizedReturn     float64   `json:"annualized_return"`
	AnnualizedVolatility float64   `json:"annualized_volatility"`
	Sharpe               *float64  `json:"sharpe"`
	Growth               []float64 `json:"growth"`
	Smoothed             []float64 `json:"smoothed,omitempty"`
	FinalGrowth          float64   `json:"final_growth"`
}

// Report compares an optimized weight vector against the equal-weight
// baseline over the same return history.
type Report struct {
	Dates       []string       `json:"dates"`
	Optimized   PortfolioStats `json:"optimized"`
	EqualWeight PortfolioStats `json:"equal_weight"`
}

// Service replays weight vectors over historical returns.
type Service struct {
	cfg Config
	log zerolog.Logger
}

// NewService creates a new backtest service.
func NewService(cfg Config, log zerolog.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log.With().Str("service", "backtest").Logger(),
	}
}

// Compare applies the given weights to the return history and reports the
// resulting portfolio statistics alongside the equal-weight baseline.
func (s *Service) Compare(matrix *returns.Matrix, weights []float64) (*Report, error) {
	n := matrix.NumAssets()
	if len(weights) != n {
		return nil, fmt.Errorf("weight count %d does not match asset count %d", len(weights), n)
	}

	optimized, err := s.portfolioStats(matrix, weights)
	if err != nil {
		return nil, err
	}

	baseline := make([]float64, n)
	for i := range baseline {
		baseline[i] = 1.0 / float64(n)
	}
	equalWeight, err := s.portfolioStats(matrix, baseline)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Float64("optimized_final", optimized.FinalGrowth).
		Float64("equal_weight_final", equalWeight.FinalGrowth).
		Msg("Backtest comparison complete")

	return &Report{
		Dates:       matrix.Dates(),
		Optimized:   *optimized,
		EqualWeight: *equalWeight,
	}, nil
}

func (s *Service) portfolioStats(matrix *returns.Matrix, weights []float64) (*PortfolioStats, error) {
	series, err := matrix.PortfolioSeries(weights)
	if err != nil {
		return nil, err
	}

	growth := formulas.CumulativeGrowth(series)
	stats := &PortfolioStats{
		Weights:              weights,
		AnnualizedReturn:     formulas.AnnualizedReturn(series, s.cfg.TradingDaysPerYear),
		AnnualizedVolatility: formulas.AnnualizedVolatility(series, s.cfg.TradingDaysPerYear),
		Sharpe:               formulas.SharpeRatio(series, s.cfg.RiskFreeRate, s.cfg.TradingDaysPerYear),
		Growth:               growth,
		FinalGrowth:          growth[len(growth)-1],
	}

	if s.cfg.SmoothingWindow > 1 && len(growth) >= s.cfg.SmoothingWindow {
		stats.Smoothed = talib.Sma(growth, s.cfg.SmoothingWindow)
	}

	return stats, nil
}
