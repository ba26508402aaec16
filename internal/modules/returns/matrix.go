// Package returns builds the date-indexed matrix of per-asset daily returns
// consumed by the optimizer.
package returns

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrInfeasibleInput indicates price or return data that must not reach the
// optimizer: missing values, non-finite entries, or out-of-order dates.
var ErrInfeasibleInput = errors.New("infeasible input data")

// Matrix is a T×N table of simple daily returns: one row per trading day,
// one column per asset. Column order matches Symbols. Immutable once built.
type Matrix struct {
	dates   []string // YYYY-MM-DD, strictly increasing
	symbols []string
	data    *mat.Dense // T×N
}

// NewMatrix validates and wraps a T×N slice of daily returns.
// Dates must be strictly increasing and every entry must be finite.
func NewMatrix(dates []string, symbols []string, rows [][]float64) (*Matrix, error) {
	t := len(rows)
	n := len(symbols)

	if n == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInfeasibleInput)
	}
	if t < 2 {
		return nil, fmt.Errorf("%w: need at least 2 return rows, got %d", ErrInfeasibleInput, t)
	}
	if len(dates) != t {
		return nil, fmt.Errorf("%w: %d dates for %d rows", ErrInfeasibleInput, len(dates), t)
	}

	for i := 1; i < t; i++ {
		if dates[i] <= dates[i-1] {
			return nil, fmt.Errorf("%w: dates not strictly increasing at row %d (%s -> %s)",
				ErrInfeasibleInput, i, dates[i-1], dates[i])
		}
	}

	data := mat.NewDense(t, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d entries, expected %d",
				ErrInfeasibleInput, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite return at row %d column %s",
					ErrInfeasibleInput, i, symbols[j])
			}
			data.Set(i, j, v)
		}
	}

	return &Matrix{
		dates:   append([]string(nil), dates...),
		symbols: append([]string(nil), symbols...),
		data:    data,
	}, nil
}

// FromPrices converts a price table to a return matrix.
// Return[t][i] = (Price[t][i] - Price[t-1][i]) / Price[t-1][i]
func FromPrices(table *PriceTable) (*Matrix, error) {
	if table == nil || len(table.Dates) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price rows", ErrInfeasibleInput)
	}

	n := len(table.Symbols)
	t := len(table.Dates) - 1
	rows := make([][]float64, t)
	for i := 0; i < t; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			prev := table.Closes[i][j]
			if prev == 0 {
				return nil, fmt.Errorf("%w: zero price for %s on %s",
					ErrInfeasibleInput, table.Symbols[j], table.Dates[i])
			}
			rows[i][j] = (table.Closes[i+1][j] - prev) / prev
		}
	}

	return NewMatrix(table.Dates[1:], table.Symbols, rows)
}

// Days returns the number of trading days (rows)
func (m *Matrix) Days() int {
	t, _ := m.data.Dims()
	return t
}

// NumAssets returns the number of assets (columns)
func (m *Matrix) NumAssets() int {
	_, n := m.data.Dims()
	return n
}

// Symbols returns the asset tickers in column order
func (m *Matrix) Symbols() []string {
	return append([]string(nil), m.symbols...)
}

// Dates returns the trading dates in row order
func (m *Matrix) Dates() []string {
	return append([]string(nil), m.dates...)
}

// At returns the return of asset j on day i
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Column returns the full return series of asset j
func (m *Matrix) Column(j int) []float64 {
	t, _ := m.data.Dims()
	col := make([]float64, t)
	mat.Col(col, j, m.data)
	return col
}

// PortfolioSeries computes the daily portfolio return series for a weight
// vector: series[t] = Σ_i weights[i] * return[t][i]
func (m *Matrix) PortfolioSeries(weights []float64) ([]float64, error) {
	t, n := m.data.Dims()
	if len(weights) != n {
		return nil, fmt.Errorf("weight vector length %d doesn't match %d assets", len(weights), n)
	}

	w := mat.NewVecDense(n, weights)
	out := mat.NewVecDense(t, nil)
	out.MulVec(m.data, w)

	return out.RawVector().Data, nil
}

// MeanReturns returns the per-asset mean daily return vector
func (m *Matrix) MeanReturns() []float64 {
	_, n := m.data.Dims()
	mu := make([]float64, n)
	for j := 0; j < n; j++ {
		mu[j] = stat.Mean(m.Column(j), nil)
	}
	return mu
}

// CovarianceMatrix returns the sample covariance matrix of the daily returns
func (m *Matrix) CovarianceMatrix() *mat.SymDense {
	_, n := m.data.Dims()
	sigma := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(sigma, m.data, nil)
	return sigma
}
