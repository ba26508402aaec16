package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/allocator/internal/modules/returns"
	"github.com/aristath/allocator/pkg/formulas"
)

// varianceFloor keeps the penalized objective finite when a candidate
// portfolio has (numerically) zero variance, so the solver can step away from
// degenerate regions instead of crashing on a division by zero.
const varianceFloor = 1e-10

// SharpeObjective maps a candidate weight vector to the negative annualized
// Sharpe ratio of the resulting portfolio. It owns an immutable return matrix
// and the run constants; evaluation is a pure function of the weight vector.
type SharpeObjective struct {
	matrix      *returns.Matrix
	riskFree    float64
	tradingDays int
}

// NewSharpeObjective binds an objective to a return matrix and run constants.
func NewSharpeObjective(matrix *returns.Matrix, cfg Config) *SharpeObjective {
	return &SharpeObjective{
		matrix:      matrix,
		riskFree:    cfg.RiskFreeRate,
		tradingDays: cfg.TradingDaysPerYear,
	}
}

// NumAssets returns the dimensionality of the weight vector.
func (o *SharpeObjective) NumAssets() int {
	return o.matrix.NumAssets()
}

// Sharpe computes the annualized Sharpe ratio for a weight vector:
//
//  1. portfolio daily series = return matrix × weights
//  2. annualized return     = mean(series) × tradingDays
//  3. annualized volatility = sample stddev(series) × sqrt(tradingDays)
//  4. sharpe                = (annualized return − risk-free rate) / annualized volatility
//
// A zero-volatility portfolio makes the ratio undefined and is reported as
// ErrDegenerateVolatility, never coerced to zero or infinity.
func (o *SharpeObjective) Sharpe(weights []float64) (float64, error) {
	series, err := o.matrix.PortfolioSeries(weights)
	if err != nil {
		return 0, err
	}

	annVol := formulas.AnnualizedVolatility(series, o.tradingDays)
	if annVol < math.Sqrt(varianceFloor) {
		return 0, fmt.Errorf("%w (annualized volatility %.2e)", ErrDegenerateVolatility, annVol)
	}

	annReturn := formulas.AnnualizedReturn(series, o.tradingDays)
	return (annReturn - o.riskFree) / annVol, nil
}

// Evaluate returns the value the solver minimizes: the negated Sharpe ratio.
func (o *SharpeObjective) Evaluate(weights []float64) (float64, error) {
	sharpe, err := o.Sharpe(weights)
	if err != nil {
		return 0, err
	}
	return -sharpe, nil
}

// guarded returns the negated Sharpe ratio with the variance floored, so the
// value stays finite on degenerate candidates encountered mid-solve.
func (o *SharpeObjective) guarded(weights []float64) float64 {
	series, err := o.matrix.PortfolioSeries(weights)
	if err != nil {
		return math.Inf(1)
	}

	annReturn := formulas.AnnualizedReturn(series, o.tradingDays)
	variance := formulas.Variance(series)
	annVol := math.Sqrt(math.Max(variance, varianceFloor) * float64(o.tradingDays))

	return -(annReturn - o.riskFree) / annVol
}
