package backtest

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/allocator/internal/modules/returns"
)

func testMatrix(t *testing.T) *returns.Matrix {
	t.Helper()

	days := 30
	dates := make([]string, days)
	rows := make([][]float64, days)
	for i := 0; i < days; i++ {
		dates[i] = fmt.Sprintf("2024-%02d-%02d", 1+i/28, 1+i%28)
		steady := 0.002
		if i%2 == 1 {
			steady = 0.001
		}
		choppy := 0.03
		if i%2 == 1 {
			choppy = -0.03
		}
		rows[i] = []float64{steady, choppy}
	}

	m, err := returns.NewMatrix(dates, []string{"STEADY", "CHOPPY"}, rows)
	require.NoError(t, err)
	return m
}

func TestCompare(t *testing.T) {
	svc := NewService(Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252}, zerolog.Nop())
	m := testMatrix(t)

	report, err := svc.Compare(m, []float64{0.9, 0.1})
	require.NoError(t, err)

	assert.Len(t, report.Dates, m.Days())
	assert.Len(t, report.Optimized.Growth, m.Days())
	assert.Len(t, report.EqualWeight.Growth, m.Days())

	// Concentrating on the steadier asset beats the noisy 50/50 baseline here
	require.NotNil(t, report.Optimized.Sharpe)
	require.NotNil(t, report.EqualWeight.Sharpe)
	assert.Greater(t, *report.Optimized.Sharpe, *report.EqualWeight.Sharpe)
	assert.Greater(t, report.Optimized.FinalGrowth, report.EqualWeight.FinalGrowth)

	// Growth curves compound from 1
	assert.InDelta(t, 1.0, report.Optimized.Growth[0]/(1+0.9*0.002+0.1*0.03), 1e-12)
}

func TestCompare_Smoothing(t *testing.T) {
	svc := NewService(Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252, SmoothingWindow: 5}, zerolog.Nop())
	m := testMatrix(t)

	report, err := svc.Compare(m, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Len(t, report.Optimized.Smoothed, m.Days())
	assert.Len(t, report.EqualWeight.Smoothed, m.Days())
}

func TestCompare_NoSmoothingByDefault(t *testing.T) {
	svc := NewService(Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252}, zerolog.Nop())

	report, err := svc.Compare(testMatrix(t), []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Nil(t, report.Optimized.Smoothed)
}

func TestCompare_WeightCountMismatch(t *testing.T) {
	svc := NewService(Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252}, zerolog.Nop())

	_, err := svc.Compare(testMatrix(t), []float64{1.0})
	assert.Error(t, err)
}
