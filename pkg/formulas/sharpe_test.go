package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharpeRatio(t *testing.T) {
	returns := []float64{0.01, -0.005, 0.008, 0.002, -0.001, 0.006}

	sharpe := SharpeRatio(returns, 0.02, 252)
	require.NotNil(t, sharpe)

	annReturn := AnnualizedReturn(returns, 252)
	annVol := AnnualizedVolatility(returns, 252)
	expected := (annReturn - 0.02) / annVol
	assert.InDelta(t, expected, *sharpe, 1e-12)
}

func TestSharpeRatio_InsufficientData(t *testing.T) {
	assert.Nil(t, SharpeRatio([]float64{}, 0.02, 252))
	assert.Nil(t, SharpeRatio([]float64{0.01}, 0.02, 252))
}

func TestSharpeRatio_ZeroVolatility(t *testing.T) {
	// Constant returns have zero variance, the ratio is undefined
	returns := []float64{0.001, 0.001, 0.001, 0.001}
	assert.Nil(t, SharpeRatio(returns, 0.02, 252))
}

func TestSharpeRatio_ScaleInvariance(t *testing.T) {
	// Scaling all returns by a positive constant scales annualized return and
	// volatility proportionally; with a zero risk-free rate the Sharpe ratio
	// is unchanged.
	returns := []float64{0.012, -0.004, 0.007, 0.003, -0.002, 0.009, 0.001}

	base := SharpeRatio(returns, 0.0, 252)
	require.NotNil(t, base)

	scaled := make([]float64, len(returns))
	for i, r := range returns {
		scaled[i] = r * 3.5
	}
	scaledSharpe := SharpeRatio(scaled, 0.0, 252)
	require.NotNil(t, scaledSharpe)

	assert.InDelta(t, *base, *scaledSharpe, 1e-10)
}

func TestSharpeFromPrices(t *testing.T) {
	prices := []float64{100, 101, 100.5, 102, 103, 102.5}

	sharpe := SharpeFromPrices(prices, 0.0)
	require.NotNil(t, sharpe)
	assert.False(t, math.IsNaN(*sharpe))
	assert.False(t, math.IsInf(*sharpe, 0))
}
