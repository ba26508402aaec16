package optimization

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/returns"
)

// DefaultMultiStarts is the number of starting points a full run sweeps.
const DefaultMultiStarts = 4

// Service orchestrates a full optimization run: load prices, build the return
// matrix, solve, persist the run.
type Service struct {
	priceRepo *returns.Repository
	runRepo   *RunRepository
	optimizer *SharpeOptimizer
	cfg       Config
	log       zerolog.Logger
}

// NewService creates a new optimization service.
func NewService(
	priceRepo *returns.Repository,
	runRepo *RunRepository,
	optimizer *SharpeOptimizer,
	cfg Config,
	log zerolog.Logger,
) *Service {
	return &Service{
		priceRepo: priceRepo,
		runRepo:   runRepo,
		optimizer: optimizer,
		cfg:       cfg,
		log:       log.With().Str("service", "optimization").Logger(),
	}
}

// BuildMatrix loads the price history for the given symbols (or every stored
// symbol when nil) and converts it to a validated return matrix.
func (s *Service) BuildMatrix(symbols []string) (*returns.Matrix, error) {
	if len(symbols) == 0 {
		stored, err := s.priceRepo.Symbols()
		if err != nil {
			return nil, fmt.Errorf("failed to list symbols: %w", err)
		}
		symbols = stored
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no price history available")
	}

	table, err := s.priceRepo.LoadTable(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	matrix, err := returns.FromPrices(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build return matrix: %w", err)
	}

	return matrix, nil
}

// Run executes a complete optimization over the given symbols and persists
// the result. Returns the run UUID alongside the result.
func (s *Service) Run(ctx context.Context, symbols []string) (string, *Result, error) {
	matrix, err := s.BuildMatrix(symbols)
	if err != nil {
		return "", nil, err
	}

	cs := LongOnly(matrix.NumAssets())
	result, err := s.optimizer.OptimizeMultiStart(ctx, matrix, cs, DefaultMultiStarts)
	if err != nil {
		return "", nil, err
	}

	runUUID, err := s.runRepo.Save(result)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().
		Str("uuid", runUUID).
		Int("num_assets", matrix.NumAssets()).
		Int("num_days", matrix.Days()).
		Msg("Optimization run complete")

	return runUUID, result, nil
}

// Config returns the run constants (risk-free rate, trading days).
func (s *Service) Config() Config {
	return s.cfg
}

// Runs returns the most recent persisted runs.
func (s *Service) Runs(limit int) ([]*RunRecord, error) {
	return s.runRepo.List(limit)
}

// GetRun fetches a persisted run by UUID.
func (s *Service) GetRun(runUUID string) (*RunRecord, error) {
	return s.runRepo.Get(runUUID)
}
