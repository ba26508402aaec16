package optimization

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/allocator/internal/modules/returns"
)

// testDates generates n sequential trading-day labels.
func testDates(n int) []string {
	dates := make([]string, n)
	for i := range dates {
		dates[i] = fmt.Sprintf("2024-01-%02d", i+1)
	}
	return dates
}

func testMatrix(t *testing.T, symbols []string, rows [][]float64) *returns.Matrix {
	t.Helper()
	m, err := returns.NewMatrix(testDates(len(rows)), symbols, rows)
	require.NoError(t, err)
	return m
}

func TestSharpeObjective_EqualWeightIsFiniteAndDeterministic(t *testing.T) {
	m := testMatrix(t, []string{"A", "B", "C"}, [][]float64{
		{0.010, -0.004, 0.002},
		{-0.002, 0.006, 0.001},
		{0.004, 0.001, -0.003},
		{0.001, -0.002, 0.005},
		{0.003, 0.002, 0.000},
	})
	obj := NewSharpeObjective(m, Config{RiskFreeRate: 0.02, TradingDaysPerYear: 252})

	w := EqualWeights(3)
	v1, err := obj.Evaluate(w)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v1))
	assert.False(t, math.IsInf(v1, 0))

	v2, err := obj.Evaluate(w)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestSharpeObjective_MatchesComputationOrder(t *testing.T) {
	m := testMatrix(t, []string{"A", "B"}, [][]float64{
		{0.01, -0.02},
		{0.02, 0.01},
		{-0.01, 0.03},
	})
	cfg := Config{RiskFreeRate: 0.03, TradingDaysPerYear: 252}
	obj := NewSharpeObjective(m, cfg)

	w := []float64{0.6, 0.4}
	series, err := m.PortfolioSeries(w)
	require.NoError(t, err)

	mean := (series[0] + series[1] + series[2]) / 3
	var variance float64
	for _, r := range series {
		variance += (r - mean) * (r - mean)
	}
	variance /= 2 // sample variance
	annReturn := mean * 252
	annVol := math.Sqrt(variance) * math.Sqrt(252)
	expected := -(annReturn - cfg.RiskFreeRate) / annVol

	got, err := obj.Evaluate(w)
	require.NoError(t, err)
	assert.InDelta(t, expected, got, 1e-12)
}

func TestSharpeObjective_ScaleInvariance(t *testing.T) {
	rows := [][]float64{
		{0.010, -0.004},
		{-0.002, 0.006},
		{0.004, 0.001},
		{0.001, -0.002},
	}
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i] = make([]float64, len(row))
		for j, v := range row {
			scaled[i][j] = v * 4.0
		}
	}

	cfg := Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252}
	base := NewSharpeObjective(testMatrix(t, []string{"A", "B"}, rows), cfg)
	big := NewSharpeObjective(testMatrix(t, []string{"A", "B"}, scaled), cfg)

	w := []float64{0.3, 0.7}
	v1, err := base.Evaluate(w)
	require.NoError(t, err)
	v2, err := big.Evaluate(w)
	require.NoError(t, err)

	// Scaling all returns by a positive constant scales annualized return and
	// volatility proportionally and leaves the Sharpe ratio unchanged.
	assert.InDelta(t, v1, v2, 1e-10)
}

func TestSharpeObjective_DegenerateVolatilityIsFlagged(t *testing.T) {
	// One asset has zero variance; a corner weight vector makes the whole
	// portfolio degenerate. The objective must flag it, not crash or coerce.
	m := testMatrix(t, []string{"FLAT", "B", "C", "D", "E"}, [][]float64{
		{0.001, 0.010, -0.004, 0.002, 0.003},
		{0.001, -0.002, 0.006, 0.001, -0.001},
		{0.001, 0.004, 0.001, -0.003, 0.002},
	})
	obj := NewSharpeObjective(m, Config{RiskFreeRate: 0.02, TradingDaysPerYear: 252})

	_, err := obj.Evaluate([]float64{1, 0, 0, 0, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateVolatility)

	// A mixed vector over the same matrix is fine
	v, err := obj.Evaluate(EqualWeights(5))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
}

func TestSharpeObjective_GuardedStaysFinite(t *testing.T) {
	m := testMatrix(t, []string{"FLAT"}, [][]float64{{0.001}, {0.001}, {0.001}})
	obj := NewSharpeObjective(m, Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252})

	v := obj.guarded([]float64{1})
	assert.False(t, math.IsNaN(v))
	assert.False(t, math.IsInf(v, 0))
}
