package optimization

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/allocator/internal/modules/returns"
)

// multiStartSeed fixes the jittered starting points so repeated multi-start
// runs over the same inputs are reproducible.
const multiStartSeed = 1

// OptimizeMultiStart runs several independent solves from different feasible
// starting points and keeps the best result. Solves share only the immutable
// return matrix, so they run concurrently without coordination.
//
// The first start is always the equal-weight vector; the rest are normalized
// random perturbations of it. A solve failing (non-convergence, degenerate
// region) does not fail the sweep unless every start fails.
func (so *SharpeOptimizer) OptimizeMultiStart(ctx context.Context, matrix *returns.Matrix, cs ConstraintSet, starts int) (*Result, error) {
	if starts < 1 {
		starts = 1
	}

	n := matrix.NumAssets()
	initials := startingPoints(n, starts)

	var (
		mu      sync.Mutex
		best    *Result
		lastErr error
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, initial := range initials {
		initial := initial
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := so.Optimize(matrix, cs, initial)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return nil // a failed start is not fatal to the sweep
			}
			if best == nil || res.Objective < best.Objective {
				best = res
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if best == nil {
		return nil, fmt.Errorf("all %d starts failed: %w", starts, lastErr)
	}

	so.log.Debug().
		Int("starts", starts).
		Float64("best_objective", best.Objective).
		Msg("Multi-start sweep complete")

	return best, nil
}

// startingPoints generates feasible starting vectors: the equal-weight vector
// first, then normalized random perturbations of it.
func startingPoints(n, starts int) [][]float64 {
	points := make([][]float64, 0, starts)
	points = append(points, EqualWeights(n))

	rng := rand.New(rand.NewSource(multiStartSeed))
	for len(points) < starts {
		w := make([]float64, n)
		sum := 0.0
		for i := range w {
			w[i] = 1.0/float64(n) + 0.5*rng.Float64()/float64(n)
			sum += w[i]
		}
		for i := range w {
			w[i] /= sum
		}
		points = append(points, w)
	}

	return points
}
