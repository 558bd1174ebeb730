package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/taxlot/matcher/internal/prices"
)

// ReadPriceFile opens and parses a historic price table.
func ReadPriceFile(path string) (*prices.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()
	table, err := ReadPrices(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// ReadPrices parses a price table: a header row of currency column names,
// then one row per date of a date followed by one price per column.
//
// Spreadsheet exports often carry OHLC column sets per currency; only bare
// headers ("BTC") or OPEN-suffixed ones ("BTC OPEN") define a price column,
// any other suffixed column is skipped. Empty cells mean no price for that
// currency on that date.
func ReadPrices(r io.Reader) (*prices.Table, error) {
	table := prices.NewTable()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// column index -> currency, for accepted columns only
	columns := make(map[int]string)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r\n")
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")

		if line == 1 {
			for i, header := range fields[1:] {
				if strings.Contains(header, " ") && !strings.Contains(header, " OPEN") {
					continue
				}
				currency, _, _ := strings.Cut(header, " ")
				columns[i] = currency
			}
			continue
		}

		date := fields[0]
		for i, cell := range fields[1:] {
			currency, ok := columns[i]
			if !ok || cell == "" {
				continue
			}
			price, err := parseDecimal(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad price %q for %s", ErrMalformedRecord, line, cell, currency)
			}
			table.Add(currency, date, price)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prices: %w", err)
	}
	return table, nil
}
