// Package prices holds the historic price table and the logic that resolves
// trade prices into the output currency.
package prices

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound reports a (currency, date) pair missing from the table. Price
// resolution treats this as fatal for the whole run: inventing a substitute
// price would corrupt tax figures.
var ErrNotFound = errors.New("price not found")

const dateLayout = "2006-01-02"

// Table maps currency and calendar date to the closing-day price in the
// history currency. Lookup is exact-date, no interpolation. The table is
// immutable once built, so concurrent lookups need no locking.
type Table struct {
	byCurrency map[string]map[string]decimal.Decimal
}

// NewTable creates an empty price table.
func NewTable() *Table {
	return &Table{byCurrency: make(map[string]map[string]decimal.Decimal)}
}

// Add records a price for the currency on the date. Used only during
// construction.
func (t *Table) Add(currency, date string, price decimal.Decimal) {
	m, ok := t.byCurrency[currency]
	if !ok {
		m = make(map[string]decimal.Decimal)
		t.byCurrency[currency] = m
	}
	m[date] = price
}

// Lookup returns the currency's price on the date, or ErrNotFound.
func (t *Table) Lookup(currency string, date time.Time) (decimal.Decimal, error) {
	if m, ok := t.byCurrency[currency]; ok {
		if p, ok := m[date.Format(dateLayout)]; ok {
			return p, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s on %s", ErrNotFound, currency, date.Format(dateLayout))
}

// Has reports whether any prices exist for the currency.
func (t *Table) Has(currency string) bool {
	_, ok := t.byCurrency[currency]
	return ok
}

// Currencies returns the number of currencies in the table.
func (t *Table) Currencies() int {
	return len(t.byCurrency)
}
