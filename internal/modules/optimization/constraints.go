package optimization

import (
	"fmt"
	"math"
)

// Bound is the closed interval a single weight must lie in.
type Bound struct {
	Lower float64
	Upper float64
}

// ConstraintSet is the declarative feasible region for a solve: per-weight
// bounds plus the equality constraint sum(weights) = SumTarget. It is built
// once and passed to the solve call, never reconstructed mid-solve.
type ConstraintSet struct {
	Bounds    []Bound
	SumTarget float64
	Tolerance float64
}

// LongOnly returns the canonical long-only constraint set: each of n weights
// in [0, 1], weights summing to 1.
func LongOnly(n int) ConstraintSet {
	bounds := make([]Bound, n)
	for i := range bounds {
		bounds[i] = Bound{Lower: 0.0, Upper: 1.0}
	}
	return ConstraintSet{
		Bounds:    bounds,
		SumTarget: 1.0,
		Tolerance: WeightSumTolerance,
	}
}

// Validate checks that the feasible region is non-empty.
func (cs ConstraintSet) Validate() error {
	if len(cs.Bounds) == 0 {
		return fmt.Errorf("constraint set has no bounds")
	}

	var lowerSum, upperSum float64
	for i, b := range cs.Bounds {
		if b.Lower > b.Upper {
			return fmt.Errorf("weight %d has invalid bounds: lower=%.4f > upper=%.4f", i, b.Lower, b.Upper)
		}
		lowerSum += b.Lower
		upperSum += b.Upper
	}

	if lowerSum > cs.SumTarget+cs.Tolerance {
		return fmt.Errorf("lower bounds sum %.4f exceeds target %.4f", lowerSum, cs.SumTarget)
	}
	if upperSum < cs.SumTarget-cs.Tolerance {
		return fmt.Errorf("upper bounds sum %.4f cannot reach target %.4f", upperSum, cs.SumTarget)
	}

	return nil
}

// Project clamps a candidate vector to the per-weight bounds.
func (cs ConstraintSet) Project(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(cs.Bounds[i].Lower, math.Min(cs.Bounds[i].Upper, x[i]))
	}
	return proj
}

// Check verifies that a weight vector satisfies the bounds and the sum
// constraint within tolerance.
func (cs ConstraintSet) Check(weights []float64) error {
	if len(weights) != len(cs.Bounds) {
		return fmt.Errorf("%w: %d weights for %d bounds", ErrInfeasibleResult, len(weights), len(cs.Bounds))
	}

	sum := 0.0
	for i, w := range weights {
		if w < cs.Bounds[i].Lower-cs.Tolerance || w > cs.Bounds[i].Upper+cs.Tolerance {
			return fmt.Errorf("%w: weight %d = %.6f outside [%.4f, %.4f]",
				ErrInfeasibleResult, i, w, cs.Bounds[i].Lower, cs.Bounds[i].Upper)
		}
		sum += w
	}

	if math.Abs(sum-cs.SumTarget) > cs.Tolerance {
		return fmt.Errorf("%w: weights sum to %.8f, want %.4f (tolerance %.1e)",
			ErrInfeasibleResult, sum, cs.SumTarget, cs.Tolerance)
	}

	return nil
}
