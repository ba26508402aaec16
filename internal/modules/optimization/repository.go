package optimization

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/allocator/internal/database"
)

// RunRecord is a persisted optimization run.
type RunRecord struct {
	UUID      string    `json:"uuid"`
	CreatedAt time.Time `json:"created_at"`
	Symbols   []string  `json:"symbols"`
	Weights   []float64 `json:"weights"`
	Sharpe    *float64  `json:"sharpe"`
	Objective float64   `json:"objective"`
	Method    string    `json:"method"`
}

// RunRepository persists optimization runs. Weight vectors are stored as
// msgpack blobs to keep the full float64 precision of the solve.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a run repository and ensures its schema exists.
func NewRunRepository(db *database.DB, log zerolog.Logger) (*RunRepository, error) {
	repo := &RunRepository{
		db:  db.Conn(),
		log: log.With().Str("component", "run_repository").Logger(),
	}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *RunRepository) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS optimization_runs (
			uuid       TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			symbols    TEXT NOT NULL,
			weights    BLOB NOT NULL,
			sharpe     REAL,
			objective  REAL NOT NULL,
			method     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_optimization_runs_created ON optimization_runs(created_at);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create optimization_runs schema: %w", err)
	}
	return nil
}

// Save persists a result and returns its new run UUID.
func (r *RunRepository) Save(result *Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil result")
	}

	blob, err := msgpack.Marshal(result.Weights)
	if err != nil {
		return "", fmt.Errorf("failed to encode weights: %w", err)
	}

	newUUID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	var sharpe sql.NullFloat64
	if result.Sharpe != nil {
		sharpe = sql.NullFloat64{Float64: *result.Sharpe, Valid: true}
	}

	_, err = r.db.Exec(`
		INSERT INTO optimization_runs (uuid, created_at, symbols, weights, sharpe, objective, method)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, newUUID, createdAt, strings.Join(result.Symbols, ","), blob, sharpe, result.Objective, result.Method)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	r.log.Info().
		Str("uuid", newUUID).
		Str("method", result.Method).
		Float64("objective", result.Objective).
		Msg("Saved optimization run")

	return newUUID, nil
}

// Get fetches a single run by UUID.
func (r *RunRepository) Get(runUUID string) (*RunRecord, error) {
	row := r.db.QueryRow(`
		SELECT uuid, created_at, symbols, weights, sharpe, objective, method
		FROM optimization_runs
		WHERE uuid = ?
	`, runUUID)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runUUID)
	}
	return record, err
}

// List returns the most recent runs, newest first.
func (r *RunRepository) List(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT uuid, created_at, symbols, weights, sharpe, objective, method
		FROM optimization_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var (
		record    RunRecord
		createdAt string
		symbols   string
		blob      []byte
		sharpe    sql.NullFloat64
	)

	if err := s.Scan(&record.UUID, &createdAt, &symbols, &blob, &sharpe, &record.Objective, &record.Method); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	record.CreatedAt = ts
	record.Symbols = strings.Split(symbols, ",")

	if err := msgpack.Unmarshal(blob, &record.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}

	if sharpe.Valid {
		record.Sharpe = &sharpe.Float64
	}

	return &record, nil
}
