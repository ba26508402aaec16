package optimization

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/allocator/internal/database"
)

func newTestRunRepository(t *testing.T) *RunRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "runs.db"),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRunRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func TestRunRepository_SaveAndGet(t *testing.T) {
	repo := newTestRunRepository(t)

	sharpe := 1.37
	result := &Result{
		Symbols:   []string{"AAA", "BBB", "CCC"},
		Weights:   []float64{0.5, 0.3, 0.2},
		Sharpe:    &sharpe,
		Objective: -1.37,
		Method:    "bfgs",
	}

	runUUID, err := repo.Save(result)
	require.NoError(t, err)
	require.NotEmpty(t, runUUID)

	record, err := repo.Get(runUUID)
	require.NoError(t, err)

	assert.Equal(t, runUUID, record.UUID)
	assert.Equal(t, result.Symbols, record.Symbols)
	assert.Equal(t, result.Weights, record.Weights)
	require.NotNil(t, record.Sharpe)
	assert.InDelta(t, sharpe, *record.Sharpe, 1e-12)
	assert.Equal(t, "bfgs", record.Method)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestRunRepository_NilSharpeSurvivesRoundTrip(t *testing.T) {
	repo := newTestRunRepository(t)

	result := &Result{
		Symbols:   []string{"A", "B"},
		Weights:   []float64{1.0, 0.0},
		Sharpe:    nil, // degenerate optimum
		Objective: -15.8,
		Method:    "nelder-mead",
	}

	runUUID, err := repo.Save(result)
	require.NoError(t, err)

	record, err := repo.Get(runUUID)
	require.NoError(t, err)
	assert.Nil(t, record.Sharpe)
}

func TestRunRepository_List(t *testing.T) {
	repo := newTestRunRepository(t)

	for i := 0; i < 3; i++ {
		_, err := repo.Save(&Result{
			Symbols:   []string{"A", "B"},
			Weights:   []float64{0.5, 0.5},
			Objective: float64(-i),
			Method:    "bfgs",
		})
		require.NoError(t, err)
	}

	records, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = repo.List(0) // default limit
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRunRepository_GetMissing(t *testing.T) {
	repo := newTestRunRepository(t)

	_, err := repo.Get("no-such-run")
	assert.Error(t, err)
}
