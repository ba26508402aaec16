// Package optimization provides Sharpe-ratio portfolio optimization.
package optimization

import "errors"

// Sum-constraint tolerance for validating solved weight vectors.
const WeightSumTolerance = 1e-6

// Error kinds surfaced by the optimizer. All are recoverable at the caller's
// discretion (retry with different initial weights, widen bounds, or report).
var (
	// ErrDegenerateVolatility marks a portfolio whose return series has zero
	// (or numerically zero) variance, making the Sharpe ratio undefined.
	ErrDegenerateVolatility = errors.New("degenerate volatility: portfolio variance is zero")

	// ErrNotConverged marks a solve that exhausted its fallback chain without
	// reaching a convergent status.
	ErrNotConverged = errors.New("optimizer did not converge")

	// ErrInfeasibleResult marks a solver output that violates the bounds or
	// the sum constraint beyond tolerance.
	ErrInfeasibleResult = errors.New("optimizer returned an infeasible weight vector")
)

// Config holds the scalar constants of an optimization run. They are supplied
// once at startup and constant for the life of a run.
type Config struct {
	RiskFreeRate       float64 // annualized, as a decimal fraction
	TradingDaysPerYear int     // typically 252
}

// Result is the outcome of a successful solve. Weights are ordered like the
// return matrix's columns and immutable once returned.
type Result struct {
	Symbols   []string  `json:"symbols"`
	Weights   []float64 `json:"weights"`
	Sharpe    *float64  `json:"sharpe"`    // nil when the optimal portfolio is degenerate
	Objective float64   `json:"objective"` // minimized value (negative Sharpe, volatility floored)
	Method    string    `json:"method"`    // solver that produced the result
}

// EqualWeights returns the naive 1/N weight vector, which doubles as the
// solver's initial guess and as the comparison baseline.
func EqualWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}
