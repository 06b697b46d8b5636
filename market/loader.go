package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/relvacode/iso8601"
)

// LoadCSV reads candles from a CSV file with the header
// timestamp,open,high,low,close,volume. Timestamps are ISO-8601; a legacy
// "2006-01-02 15:04:05" layout is accepted as a fallback.
func LoadCSV(path, symbol string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, symbol)
}

// ReadCSV parses candles from r. See LoadCSV for the expected format.
func ReadCSV(r io.Reader, symbol string) ([]Candle, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var candles []Candle
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		ts, err := parseTimestamp(row[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		open, err1 := strconv.ParseFloat(row[col["open"]], 64)
		high, err2 := strconv.ParseFloat(row[col["high"]], 64)
		low, err3 := strconv.ParseFloat(row[col["low"]], 64)
		cls, err4 := strconv.ParseFloat(row[col["close"]], 64)
		vol, err5 := strconv.ParseInt(row[col["volume"]], 10, 64)
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		candles = append(candles, Candle{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Volume:    vol,
			Symbol:    symbol,
		})
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := iso8601.ParseString(s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
