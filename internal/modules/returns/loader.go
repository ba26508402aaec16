package returns

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// PriceTable holds a date-indexed table of daily close prices, one column per
// asset ticker. This is the input boundary of the system.
type PriceTable struct {
	Dates   []string    // YYYY-MM-DD, strictly increasing
	Symbols []string    // column order
	Closes  [][]float64 // len(Dates) rows × len(Symbols) columns
}

// LoadCSVFile reads a price table from a CSV file on disk.
func LoadCSVFile(path string) (*PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prices CSV: %w", err)
	}
	defer f.Close()

	table, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// ParseCSV parses a price table from CSV data.
// Expected layout: header "date,SYM1,SYM2,...", then one row per trading day
// with a parseable date and a close price for every column. Missing cells are
// rejected so that incomplete data never reaches the optimizer.
func ParseCSV(r io.Reader) (*PriceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs a date column and at least one ticker", ErrInfeasibleInput)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("%w: first column must be 'date', got %q", ErrInfeasibleInput, header[0])
	}

	symbols := make([]string, 0, len(header)-1)
	for _, h := range header[1:] {
		symbol := strings.TrimSpace(h)
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty ticker in header", ErrInfeasibleInput)
		}
		symbols = append(symbols, symbol)
	}

	table := &PriceTable{Symbols: symbols}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line+1, err)
		}
		line++

		date, err := normalizeDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInfeasibleInput, line, err)
		}
		if len(table.Dates) > 0 && date <= table.Dates[len(table.Dates)-1] {
			return nil, fmt.Errorf("%w: line %d: date %s not after %s",
				ErrInfeasibleInput, line, date, table.Dates[len(table.Dates)-1])
		}

		row := make([]float64, len(symbols))
		for j, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				return nil, fmt.Errorf("%w: line %d: missing close for %s",
					ErrInfeasibleInput, line, symbols[j])
			}
			price, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad close %q for %s",
					ErrInfeasibleInput, line, cell, symbols[j])
			}
			if price <= 0 {
				return nil, fmt.Errorf("%w: line %d: non-positive close %.4f for %s",
					ErrInfeasibleInput, line, price, symbols[j])
			}
			row[j] = price
		}

		table.Dates = append(table.Dates, date)
		table.Closes = append(table.Closes, row)
	}

	if len(table.Dates) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 price rows, got %d", ErrInfeasibleInput, len(table.Dates))
	}

	return table, nil
}

// normalizeDate parses the date formats seen in exported price data and
// normalizes to YYYY-MM-DD so string comparison preserves chronological order.
func normalizeDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", raw)
}
