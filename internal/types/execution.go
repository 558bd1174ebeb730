package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Execution is one side of one fill, always a single currency after
// normalization. Quantity is fixed at creation; Remaining is consumed by
// matches and transfer fees, so 0 <= Remaining <= Quantity at all times.
// Price and Fee are already resolved to the output currency.
type Execution struct {
	Exchange string
	Time     time.Time
	Asset    string
	Side     Side
	Quantity decimal.Decimal
	// Remaining is the quantity not yet consumed by a match or transfer.
	Remaining decimal.Decimal
	// Price is the unit cost (buys) or unit proceeds (sells) in the output
	// currency, immutable after normalization.
	Price decimal.Decimal
	// Fee is the not-yet-consumed fee in the output currency; matches take
	// proportional shares out of it.
	Fee    decimal.Decimal
	Merged bool
	// Constituents holds snapshots of the original executions absorbed into
	// this one, for the unmatched/verbose audit trail. Nil unless Merged.
	Constituents []*Execution
}

// NewExecution builds an open execution with Remaining = Quantity. For the
// Transfer pseudo-side the consumable quantity is the transfer fee.
func NewExecution(exchange string, ts time.Time, asset string, side Side, quantity, price, fee decimal.Decimal) *Execution {
	if side == Transfer {
		quantity = fee
	}
	return &Execution{
		Exchange:  exchange,
		Time:      ts,
		Asset:     asset,
		Side:      side,
		Quantity:  quantity,
		Remaining: quantity,
		Price:     price,
		Fee:       fee,
	}
}

// Snapshot returns a copy of the execution without its constituent list,
// preserving pre-merge values for audit output.
func (e *Execution) Snapshot() *Execution {
	c := *e
	c.Constituents = nil
	return &c
}

// Absorb folds other into e: quantities and fees add, the unit price becomes
// the quantity-weighted average, and both originals are recorded as
// constituents. The absorbing execution keeps its exchange and timestamp.
func (e *Execution) Absorb(other *Execution) {
	if !e.Merged {
		e.Constituents = append(e.Constituents, e.Snapshot())
	}
	e.Constituents = append(e.Constituents, other.Snapshot())

	if !e.Price.Equal(other.Price) {
		total := e.Quantity.Add(other.Quantity)
		e.Price = e.Price.Mul(e.Quantity).Add(other.Price.Mul(other.Quantity)).Div(total)
	}
	e.Quantity = e.Quantity.Add(other.Quantity)
	e.Remaining = e.Quantity
	e.Fee = e.Fee.Add(other.Fee)
	e.Merged = true
}

func (e *Execution) String() string {
	if e.Side == Transfer {
		return fmt.Sprintf("%s: %s %s between %s for %s %s",
			e.Asset, e.Side, e.Remaining.StringFixed(4), e.Exchange, e.Quantity.String(), e.Asset)
	}
	return fmt.Sprintf("%s: %s %s @ %s (fee %s) on %s [Merged = %t]",
		e.Asset, e.Side, e.Remaining.StringFixed(4), e.Price.StringFixed(4), e.Fee.StringFixed(4), e.Exchange, e.Merged)
}
