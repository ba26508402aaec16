package returns

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(t *testing.T) {
	m, err := NewMatrix(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]string{"AAA", "BBB"},
		[][]float64{
			{0.01, -0.02},
			{0.005, 0.01},
			{-0.003, 0.0},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, m.Days())
	assert.Equal(t, 2, m.NumAssets())
	assert.Equal(t, []string{"AAA", "BBB"}, m.Symbols())
	assert.InDelta(t, -0.02, m.At(0, 1), 1e-12)
	assert.Equal(t, []float64{0.01, 0.005, -0.003}, m.Column(0))
}

func TestNewMatrix_RejectsNonFinite(t *testing.T) {
	_, err := NewMatrix(
		[]string{"2024-01-02", "2024-01-03"},
		[]string{"AAA"},
		[][]float64{{0.01}, {math.NaN()}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfeasibleInput)
}

func TestNewMatrix_RejectsUnorderedDates(t *testing.T) {
	_, err := NewMatrix(
		[]string{"2024-01-03", "2024-01-02"},
		[]string{"AAA"},
		[][]float64{{0.01}, {0.02}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfeasibleInput)
}

func TestNewMatrix_RejectsRaggedRows(t *testing.T) {
	_, err := NewMatrix(
		[]string{"2024-01-02", "2024-01-03"},
		[]string{"AAA", "BBB"},
		[][]float64{{0.01, 0.02}, {0.01}},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfeasibleInput)
}

func TestFromPrices(t *testing.T) {
	table := &PriceTable{
		Dates:   []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		Symbols: []string{"AAA", "BBB"},
		Closes: [][]float64{
			{100, 50},
			{110, 49},
			{99, 49},
		},
	}

	m, err := FromPrices(table)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Days())
	assert.Equal(t, []string{"2024-01-03", "2024-01-04"}, m.Dates())
	assert.InDelta(t, 0.10, m.At(0, 0), 1e-12)
	assert.InDelta(t, -0.02, m.At(0, 1), 1e-12)
	assert.InDelta(t, -0.10, m.At(1, 0), 1e-12)
	assert.InDelta(t, 0.0, m.At(1, 1), 1e-12)
}

func TestFromPrices_RejectsZeroPrice(t *testing.T) {
	table := &PriceTable{
		Dates:   []string{"2024-01-02", "2024-01-03"},
		Symbols: []string{"AAA"},
		Closes:  [][]float64{{0}, {10}},
	}

	_, err := FromPrices(table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInfeasibleInput)
}

func TestPortfolioSeries(t *testing.T) {
	m, err := NewMatrix(
		[]string{"2024-01-02", "2024-01-03"},
		[]string{"AAA", "BBB"},
		[][]float64{
			{0.01, -0.02},
			{0.02, 0.04},
		},
	)
	require.NoError(t, err)

	series, err := m.PortfolioSeries([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.InDelta(t, -0.005, series[0], 1e-12)
	assert.InDelta(t, 0.03, series[1], 1e-12)

	_, err = m.PortfolioSeries([]float64{1.0})
	assert.Error(t, err)
}

func TestCovarianceMatrix(t *testing.T) {
	m, err := NewMatrix(
		[]string{"2024-01-02", "2024-01-03", "2024-01-04"},
		[]string{"AAA", "BBB"},
		[][]float64{
			{0.01, -0.01},
			{0.02, 0.00},
			{0.00, 0.02},
		},
	)
	require.NoError(t, err)

	sigma := m.CovarianceMatrix()
	r, c := sigma.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)

	// Diagonal entries are the per-asset sample variances
	colA := m.Column(0)
	mean := (colA[0] + colA[1] + colA[2]) / 3
	var varA float64
	for _, v := range colA {
		varA += (v - mean) * (v - mean)
	}
	varA /= 2 // sample variance
	assert.InDelta(t, varA, sigma.At(0, 0), 1e-12)
}
