package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/modules/optimization"
)

// reoptimizeTimeout bounds a scheduled solve so a hung run cannot pile up
// behind the next trigger.
const reoptimizeTimeout = 10 * time.Minute

// ReoptimizeJob re-runs the Sharpe optimization over the full stored universe.
type ReoptimizeJob struct {
	service *optimization.Service
	log     zerolog.Logger
}

// NewReoptimizeJob creates a new re-optimization job
func NewReoptimizeJob(service *optimization.Service, log zerolog.Logger) *ReoptimizeJob {
	return &ReoptimizeJob{
		service: service,
		log:     log.With().Str("job", "reoptimize").Logger(),
	}
}

// Name returns the job name
func (j *ReoptimizeJob) Name() string {
	return "reoptimize"
}

// Run executes a full optimization over every stored symbol and persists it.
func (j *ReoptimizeJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), reoptimizeTimeout)
	defer cancel()

	runUUID, result, err := j.service.Run(ctx, nil)
	if err != nil {
		return err
	}

	event := j.log.Info().
		Str("uuid", runUUID).
		Str("method", result.Method)
	if result.Sharpe != nil {
		event = event.Float64("sharpe", *result.Sharpe)
	}
	event.Msg("Scheduled re-optimization complete")

	return nil
}
