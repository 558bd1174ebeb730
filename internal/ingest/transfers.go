package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/taxlot/matcher/internal/types"
)

// ReadTransfersFile opens and parses a transfer ledger.
func ReadTransfersFile(path string) ([]types.TransferRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transfer file: %w", err)
	}
	defer f.Close()
	transfers, err := ReadTransfers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return transfers, nil
}

// ReadTransfers parses transfer rows: destination, source, date-time, asset,
// quantity, fee. Rows are expected pre-sorted by date.
func ReadTransfers(r io.Reader) ([]types.TransferRecord, error) {
	var transfers []types.TransferRecord
	sc := bufio.NewScanner(r)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r\n")
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) != 6 {
			return nil, fmt.Errorf("%w: line %d: want 6 fields, got %d", ErrMalformedRecord, line, len(fields))
		}
		ts, err := time.Parse(timeLayout, fields[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad date %q", ErrMalformedRecord, line, fields[2])
		}
		quantity, err := parseDecimal(fields[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad quantity %q", ErrMalformedRecord, line, fields[4])
		}
		fee, err := parseDecimal(fields[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad fee %q", ErrMalformedRecord, line, fields[5])
		}
		transfers = append(transfers, types.TransferRecord{
			Destination: fields[0],
			Source:      fields[1],
			Time:        ts,
			Asset:       fields[3],
			Quantity:    quantity,
			Fee:         fee,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transfers: %w", err)
	}
	return transfers, nil
}
