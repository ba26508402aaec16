package optimization

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/allocator/internal/database"
	"github.com/aristath/allocator/internal/modules/returns"
)

func newTestService(t *testing.T) (*Service, *returns.Repository) {
	t.Helper()

	dir := t.TempDir()
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = historyDB.Close() })

	runsDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "runs.db"),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runsDB.Close() })

	priceRepo, err := returns.NewRepository(historyDB, zerolog.Nop())
	require.NoError(t, err)
	runRepo, err := NewRunRepository(runsDB, zerolog.Nop())
	require.NoError(t, err)

	cfg := Config{RiskFreeRate: 0.0, TradingDaysPerYear: 252}
	svc := NewService(priceRepo, runRepo, NewSharpeOptimizer(cfg, zerolog.Nop()), cfg, zerolog.Nop())
	return svc, priceRepo
}

func seedPrices(t *testing.T, repo *returns.Repository) {
	t.Helper()

	days := 40
	table := &returns.PriceTable{
		Symbols: []string{"GOOD", "NOISY"},
		Dates:   longTestDates(days),
		Closes:  make([][]float64, days),
	}
	good, noisy := 100.0, 100.0
	for i := 0; i < days; i++ {
		if i%2 == 0 {
			good *= 1.002
			noisy *= 1.02
		} else {
			good *= 1.0005
			noisy *= 0.98
		}
		table.Closes[i] = []float64{good, noisy}
	}
	require.NoError(t, repo.SaveTable(table))
}

func TestService_Run(t *testing.T) {
	svc, priceRepo := newTestService(t)
	seedPrices(t, priceRepo)

	runUUID, result, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, runUUID)
	require.NotNil(t, result)

	assert.Equal(t, []string{"GOOD", "NOISY"}, result.Symbols)
	assert.NoError(t, LongOnly(2).Check(result.Weights))
	assert.Greater(t, result.Weights[0], result.Weights[1])

	// The run is persisted and readable
	record, err := svc.GetRun(runUUID)
	require.NoError(t, err)
	assert.Equal(t, result.Weights, record.Weights)

	records, err := svc.Runs(10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestService_Run_NoPrices(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestService_BuildMatrix(t *testing.T) {
	svc, priceRepo := newTestService(t)
	seedPrices(t, priceRepo)

	matrix, err := svc.BuildMatrix([]string{"GOOD", "NOISY"})
	require.NoError(t, err)
	assert.Equal(t, 2, matrix.NumAssets())
	assert.Equal(t, 39, matrix.Days())
}
