// Package report renders match results in one of four views. It is a pure
// projection: nothing here mutates engine state, and no totals or sorting
// are applied beyond per-currency grouping; consumers sort and aggregate
// downstream.
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/matching"
	"github.com/taxlot/matcher/internal/types"
)

// Reporter writes one of the output views to w.
type Reporter struct {
	w           io.Writer
	currencyOut string
}

// New creates a reporter that denominates aggregates in currencyOut.
func New(w io.Writer, currencyOut string) *Reporter {
	return &Reporter{w: w, currencyOut: currencyOut}
}

// Render writes the selected view.
func (r *Reporter) Render(view types.View, res *matching.Result) error {
	if view == types.ViewMatch {
		for _, m := range res.Matches {
			if _, err := fmt.Fprintln(r.w, m.String()); err != nil {
				return err
			}
		}
		return nil
	}

	for _, currency := range res.Currencies() {
		executions := res.Leftovers[currency]
		if len(executions) == 0 {
			continue
		}
		if view == types.ViewBasis || view == types.ViewSummary {
			if err := r.writeBasis(currency, executions, res.TransferDebits[currency]); err != nil {
				return err
			}
		}
		if view == types.ViewUnmatched || view == types.ViewSummary {
			for _, e := range executions {
				if _, err := fmt.Fprintf(r.w, "  %s\n", e.String()); err != nil {
					return err
				}
				for _, c := range e.Constituents {
					if _, err := fmt.Fprintf(r.w, "    <- %s\n", c.String()); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// writeBasis prints the per-currency aggregate of the residual queue: total
// remaining quantity (net of basis-only transfer debits), quantity-weighted
// average price, and total residual fees.
func (r *Reporter) writeBasis(currency string, executions []*types.Execution, debit decimal.Decimal) error {
	totalQty := decimal.Zero
	totalAmt := decimal.Zero
	totalFees := decimal.Zero
	for _, e := range executions {
		if e.Side == types.Transfer {
			continue
		}
		totalQty = totalQty.Add(e.Remaining)
		totalAmt = totalAmt.Add(e.Remaining.Mul(e.Price))
		totalFees = totalFees.Add(e.Fee)
	}
	if totalQty.IsZero() {
		return nil
	}
	avg := totalAmt.Div(totalQty)
	netQty := totalQty.Sub(debit)

	_, err := fmt.Fprintf(r.w, "%s : %s @ %s %s with %s %s fees\n",
		currency, netQty.StringFixed(4), r.currencyOut, avg.StringFixed(4), r.currencyOut, totalFees.StringFixed(2))
	return err
}
