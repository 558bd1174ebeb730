// Package ingest reads the three tab-separated record formats the pipeline
// consumes: trade ledgers, transfer ledgers, and historic price tables. Any
// malformed row aborts the read with the offending line number; fixing the
// data upstream beats producing a maybe-wrong tax figure.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/types"
)

// ErrMalformedRecord reports a row that fails schema validation.
var ErrMalformedRecord = errors.New("malformed record")

const timeLayout = "2006-01-02 15:04:05"

// ReadTradesFile opens and parses a trade ledger.
func ReadTradesFile(path string) ([]types.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade file: %w", err)
	}
	defer f.Close()
	trades, err := ReadTrades(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trades, nil
}

// ReadTrades parses trade rows: exchange, date-time, TOP/BOTTOM pair, side,
// price, quantity, fee, fee currency, fee-final, fee-attached, and an
// optional other-quantity. Rows are expected pre-sorted by date.
func ReadTrades(r io.Reader) ([]types.Trade, error) {
	var trades []types.Trade
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r\n")
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) < 10 || len(fields) > 11 {
			return nil, fmt.Errorf("%w: line %d: want 10 or 11 fields, got %d", ErrMalformedRecord, line, len(fields))
		}

		ts, err := time.Parse(timeLayout, fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad date %q", ErrMalformedRecord, line, fields[1])
		}
		top, bottom, ok := strings.Cut(fields[2], "/")
		if !ok || top == "" || bottom == "" {
			return nil, fmt.Errorf("%w: line %d: bad pair %q", ErrMalformedRecord, line, fields[2])
		}
		side := types.Side(fields[3])
		if side != types.Buy && side != types.Sell {
			return nil, fmt.Errorf("%w: line %d: bad side %q", ErrMalformedRecord, line, fields[3])
		}
		price, err := parseDecimal(fields[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad price %q", ErrMalformedRecord, line, fields[4])
		}
		quantity, err := parseDecimal(fields[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad quantity %q", ErrMalformedRecord, line, fields[5])
		}
		fee, err := parseDecimal(fields[6])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad fee %q", ErrMalformedRecord, line, fields[6])
		}
		feeFinal, err := parseDecimal(fields[8])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad fee-final %q", ErrMalformedRecord, line, fields[8])
		}

		t := types.Trade{
			Exchange:    fields[0],
			Time:        ts,
			Asset:       top,
			Underlying:  bottom,
			Side:        side,
			Price:       price,
			Quantity:    quantity,
			Fee:         fee,
			FeeCurrency: fields[7],
			FeeFinal:    feeFinal,
			FeeAttached: fields[9] == "True",
		}
		if len(fields) == 11 && fields[10] != "" {
			alt, err := parseDecimal(fields[10])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad other-quantity %q", ErrMalformedRecord, line, fields[10])
			}
			t.AltQuantity = alt
			t.HasAltQuantity = true
		}
		trades = append(trades, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	return trades, nil
}

// parseDecimal accepts exchange-export numerics, which may carry thousands
// separators.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}
