package trades

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 지원하는 closed_at 포맷 (순서대로 시도)
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVSource reads trades from a CSV file with a header row containing at
// least closed_at and pnl. An optional symbol column is kept.
type CSVSource struct {
	Path       string
	StrategyID string
}

// NewCSVSource creates a CSV source. strategyID defaults to the file name.
func NewCSVSource(path, strategyID string) *CSVSource {
	if strategyID == "" {
		strategyID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &CSVSource{Path: path, StrategyID: strategyID}
}

// Load implements Source.
func (s *CSVSource) Load(_ context.Context) (*Series, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trades file: %w", err)
	}
	defer f.Close()

	trades, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return NewSeries(s.StrategyID, trades)
}

// ReadCSV parses closed_at,pnl[,symbol] rows.
func ReadCSV(r io.Reader) ([]Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoTrades
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	closedCol, ok := cols["closed_at"]
	if !ok {
		return nil, fmt.Errorf("missing closed_at column")
	}
	pnlCol, ok := cols["pnl"]
	if !ok {
		return nil, fmt.Errorf("missing pnl column")
	}
	symbolCol, hasSymbol := cols["symbol"]

	var trades []Trade
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) <= closedCol || len(record) <= pnlCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(closedCol, pnlCol)+1, len(record))
		}

		closedAt, err := parseTime(record[closedCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pnl, err := decimal.NewFromString(strings.TrimSpace(record[pnlCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pnl %q: %w", line, record[pnlCol], err)
		}

		t := Trade{ClosedAt: closedAt, PnL: pnl}
		if hasSymbol && len(record) > symbolCol {
			t.Symbol = strings.TrimSpace(record[symbolCol])
		}
		trades = append(trades, t)
	}

	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return trades, nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid closed_at %q", value)
}
