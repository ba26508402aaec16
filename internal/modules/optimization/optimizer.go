package optimization

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/aristath/allocator/internal/modules/returns"
)

// penaltyWeight scales the quadratic penalty that keeps the solver near the
// sum(weights)=1 hyperplane.
const penaltyWeight = 1000.0

// SharpeOptimizer finds the weight vector maximizing the annualized Sharpe
// ratio subject to a ConstraintSet. Each solve is independent and reads only
// immutable inputs, so concurrent solves need no coordination.
type SharpeOptimizer struct {
	cfg Config
	log zerolog.Logger
}

// NewSharpeOptimizer creates a new Sharpe-ratio optimizer.
func NewSharpeOptimizer(cfg Config, log zerolog.Logger) *SharpeOptimizer {
	return &SharpeOptimizer{
		cfg: cfg,
		log: log.With().Str("component", "sharpe_optimizer").Logger(),
	}
}

// Optimize solves for the maximum-Sharpe weight vector.
//
// Mathematical formulation:
//   - maximize (D·μ'w − r_f) / (sqrt(D)·sqrt(w'Σw))
//   - subject to Σw = 1 and lower_i ≤ w_i ≤ upper_i
//
// where μ and Σ are the sample mean vector and covariance matrix of the daily
// returns and D is the trading-day count used for annualization. The equality
// constraint is enforced with a quadratic penalty, the bounds by projection
// inside the objective, since gonum's local minimizers are unconstrained.
//
// initial may be nil, in which case the equal-weight 1/N vector is used.
// Failure to converge or an infeasible final vector is an explicit error,
// never a silently returned result.
func (so *SharpeOptimizer) Optimize(matrix *returns.Matrix, cs ConstraintSet, initial []float64) (*Result, error) {
	n := matrix.NumAssets()
	if n == 0 {
		return nil, fmt.Errorf("return matrix has no assets")
	}
	if len(cs.Bounds) != n {
		return nil, fmt.Errorf("constraint set has %d bounds for %d assets", len(cs.Bounds), n)
	}
	if err := cs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid constraints: %w", err)
	}

	if initial == nil {
		initial = EqualWeights(n)
	}
	if len(initial) != n {
		return nil, fmt.Errorf("initial guess has %d weights for %d assets", len(initial), n)
	}

	obj := NewSharpeObjective(matrix, so.cfg)
	mu := matrix.MeanReturns()
	sigma := matrix.CovarianceMatrix()
	days := float64(so.cfg.TradingDaysPerYear)
	sqrtDays := math.Sqrt(days)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := cs.Project(x)

			var annReturn float64
			for i := 0; i < n; i++ {
				annReturn += mu[i] * xProj[i]
			}
			annReturn *= days

			variance := quadraticForm(sigma, xProj)
			stdDev := math.Sqrt(math.Max(variance, varianceFloor))

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}

			val := -(annReturn - so.cfg.RiskFreeRate) / (sqrtDays * stdDev)
			val += penaltyWeight * (sum - cs.SumTarget) * (sum - cs.SumTarget)

			return val
		},
		Grad: func(grad, x []float64) {
			xProj := cs.Project(x)

			var annReturn float64
			for i := 0; i < n; i++ {
				annReturn += mu[i] * xProj[i]
			}
			annReturn *= days

			variance := quadraticForm(sigma, xProj)
			stdDev := math.Sqrt(math.Max(variance, varianceFloor))
			excess := annReturn - so.cfg.RiskFreeRate

			for i := 0; i < n; i++ {
				var dVariance float64
				for j := 0; j < n; j++ {
					dVariance += 2 * sigma.At(i, j) * xProj[j]
				}
				grad[i] = -days*mu[i]/(sqrtDays*stdDev) +
					excess*dVariance/(2*sqrtDays*stdDev*stdDev*stdDev)
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - cs.SumTarget)
			}
		},
	}

	start := append([]float64(nil), initial...)

	method := "bfgs"
	result, err := optimize.Minimize(problem, start, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !isConverged(result.Status) {
		// Gradient-based method struggled, retry with the derivative-free fallback
		method = "nelder-mead"
		result, err = optimize.Minimize(problem, start, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotConverged, err)
		}
		if !isConverged(result.Status) {
			return nil, fmt.Errorf("%w: status=%v", ErrNotConverged, result.Status)
		}
	}

	weights := normalize(cs.Project(result.X), cs.SumTarget)

	// The solve must never make the objective worse than the starting point.
	// If the penalized landscape tricked the solver, keep the initial guess.
	initialObj := obj.guarded(initial)
	finalObj := obj.guarded(weights)
	if finalObj > initialObj {
		so.log.Warn().
			Float64("initial_objective", initialObj).
			Float64("final_objective", finalObj).
			Str("method", method).
			Msg("Solver result worse than initial guess - keeping initial weights")
		weights = append([]float64(nil), initial...)
		finalObj = initialObj
		method = "initial-guess"
	}

	if err := cs.Check(weights); err != nil {
		return nil, err
	}

	res := &Result{
		Symbols:   matrix.Symbols(),
		Weights:   weights,
		Objective: finalObj,
		Method:    method,
	}

	sharpe, err := obj.Sharpe(weights)
	switch {
	case err == nil:
		res.Sharpe = &sharpe
	case errors.Is(err, ErrDegenerateVolatility):
		// Feasible optimum with an undefined ratio: surface the weights but
		// flag the degenerate Sharpe instead of coercing it.
		so.log.Warn().Msg("Optimal portfolio has degenerate volatility")
	default:
		return nil, err
	}

	so.log.Debug().
		Str("method", method).
		Float64("objective", finalObj).
		Int("num_assets", n).
		Msg("Solve complete")

	return res, nil
}

// isConverged reports whether a gonum status counts as a successful solve.
func isConverged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.FunctionThreshold:
		return true
	default:
		return false
	}
}

// quadraticForm computes w'Σw.
func quadraticForm(sigma *mat.SymDense, w []float64) float64 {
	n := len(w)
	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return total
}

// normalize clips negatives and rescales so the weights sum to target.
func normalize(w []float64, target float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, v := range w {
		out[i] = math.Max(0.0, v)
		sum += out[i]
	}
	if sum <= 0 {
		return out
	}
	scale := target / sum
	for i := range out {
		out[i] *= scale
	}
	return out
}
