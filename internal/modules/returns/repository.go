package returns

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/allocator/internal/database"
)

// Repository persists daily close prices in the history database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price repository and ensures its schema exists.
func NewRepository(db *database.DB, log zerolog.Logger) (*Repository, error) {
	repo := &Repository{
		db:  db.Conn(),
		log: log.With().Str("component", "price_repository").Logger(),
	}
	if err := repo.migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			close  REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		);
		CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create daily_prices schema: %w", err)
	}
	return nil
}

// SaveTable upserts an entire price table in one transaction.
func (r *Repository) SaveTable(table *PriceTable) error {
	if table == nil || len(table.Dates) == 0 {
		return fmt.Errorf("empty price table")
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO daily_prices (symbol, date, close)
			VALUES (?, ?, ?)
			ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i, date := range table.Dates {
			for j, symbol := range table.Symbols {
				if _, err := stmt.Exec(symbol, date, table.Closes[i][j]); err != nil {
					return fmt.Errorf("failed to upsert %s@%s: %w", symbol, date, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Int("num_symbols", len(table.Symbols)).
		Int("num_days", len(table.Dates)).
		Msg("Saved price table")

	return nil
}

// Symbols returns all tickers present in the history database, sorted.
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// LoadTable loads the price table for the given symbols, restricted to dates
// where every symbol has a close. Column order follows the symbols argument,
// so downstream weight vectors stay aligned with it.
func (r *Repository) LoadTable(symbols []string) (*PriceTable, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}

	closes := make(map[string]map[string]float64, len(symbols)) // date -> symbol -> close
	for _, symbol := range symbols {
		rows, err := r.db.Query(
			`SELECT date, close FROM daily_prices WHERE symbol = ? ORDER BY date`, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
		}
		for rows.Next() {
			var date string
			var close float64
			if err := rows.Scan(&date, &close); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan price for %s: %w", symbol, err)
			}
			if closes[date] == nil {
				closes[date] = make(map[string]float64, len(symbols))
			}
			closes[date][symbol] = close
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	// Keep only dates covered by every symbol
	var dates []string
	for date, bySymbol := range closes {
		if len(bySymbol) == len(symbols) {
			dates = append(dates, date)
		}
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: only %d complete dates for %d symbols",
			ErrInfeasibleInput, len(dates), len(symbols))
	}
	sort.Strings(dates)

	table := &PriceTable{
		Dates:   dates,
		Symbols: append([]string(nil), symbols...),
		Closes:  make([][]float64, len(dates)),
	}
	for i, date := range dates {
		row := make([]float64, len(symbols))
		for j, symbol := range symbols {
			row[j] = closes[date][symbol]
		}
		table.Closes[i] = row
	}

	r.log.Debug().
		Int("num_symbols", len(symbols)).
		Int("num_days", len(dates)).
		Msg("Loaded price table")

	return table, nil
}
