// Package matching runs the streaming lot-matching pass: one open-lot queue
// per currency, consumed by opposite-side executions under a FIFO or LIFO
// strategy, with transfer fees folded in per the configured mode.
package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/logger"
	"github.com/taxlot/matcher/internal/types"
)

// Engine matches a chronological execution stream. It owns no state between
// runs; each Run builds fresh per-currency queues.
type Engine struct {
	strategy     types.Strategy
	transferMode types.TransferMode
	log          *logger.Logger
}

// New creates an engine for the given strategy and transfer mode.
func New(strategy types.Strategy, transferMode types.TransferMode, log *logger.Logger) *Engine {
	return &Engine{strategy: strategy, transferMode: transferMode, log: log}
}

// Result is everything matching produces: the emitted matches (grouped by
// currency in first-appearance order), the residual open executions per
// currency, and, in basis-only transfer mode, the per-currency quantity lost
// to transfer fees.
type Result struct {
	Matches        []*types.Match
	Leftovers      map[string][]*types.Execution
	TransferDebits map[string]decimal.Decimal
}

// Currencies returns the leftover currencies in sorted order.
func (r *Result) Currencies() []string {
	out := make([]string, 0, len(r.Leftovers))
	for c := range r.Leftovers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// InterleaveTransfers folds transfer pseudo-executions into the execution
// stream by timestamp. Both inputs are time-ordered; at equal timestamps the
// execution goes first, so a same-second transfer consumes the lot it
// follows.
func InterleaveTransfers(executions []*types.Execution, transfers []types.TransferRecord) []*types.Execution {
	if len(transfers) == 0 {
		return executions
	}
	out := make([]*types.Execution, 0, len(executions)+len(transfers))
	j := 0
	for _, e := range executions {
		for j < len(transfers) && transfers[j].Time.Before(e.Time) {
			out = append(out, transfers[j].Execution())
			j++
		}
		out = append(out, e)
	}
	for ; j < len(transfers); j++ {
		out = append(out, transfers[j].Execution())
	}
	return out
}

// Run processes the stream in order and returns the match results.
func (e *Engine) Run(executions []*types.Execution) *Result {
	res := &Result{
		Leftovers:      make(map[string][]*types.Execution),
		TransferDebits: make(map[string]decimal.Decimal),
	}

	// split into per-currency streams, preserving order of first appearance
	streams := make(map[string][]*types.Execution)
	var order []string
	for _, ex := range executions {
		if _, ok := streams[ex.Asset]; !ok {
			order = append(order, ex.Asset)
		}
		streams[ex.Asset] = append(streams[ex.Asset], ex)
	}

	for _, currency := range order {
		e.matchCurrency(currency, streams[currency], res)
	}
	return res
}

func (e *Engine) matchCurrency(currency string, stream []*types.Execution, res *Result) {
	q := newLotQueue(e.strategy)
	var residues []*types.Execution

	for _, ex := range stream {
		if ex.Side == types.Transfer {
			if residue := e.applyTransfer(ex, q, res); residue != nil {
				residues = append(residues, residue)
			}
			continue
		}
		// same side as the open end, or nothing open: this execution opens
		if q.len() == 0 || q.peek().Side == ex.Side {
			q.push(ex)
			continue
		}
		e.settle(currency, ex, q, res)
	}

	leftovers := append(q.items, residues...)
	if len(leftovers) > 0 {
		res.Leftovers[currency] = leftovers
	}
}

// settle consumes open lots with the closing execution, emitting one match
// per (lot, closer) pairing. Fees are consumed pro rata with quantity, so a
// partially matched lot keeps the unconsumed share of its fee for later
// matches.
func (e *Engine) settle(currency string, closer *types.Execution, q *lotQueue, res *Result) {
	for {
		lot := q.take()
		consumed := decimal.Min(lot.Remaining, closer.Remaining)

		feeLot := lot.Fee.Mul(consumed).Div(lot.Remaining)
		feeCloser := closer.Fee.Mul(consumed).Div(closer.Remaining)
		lot.Fee = lot.Fee.Sub(feeLot)
		closer.Fee = closer.Fee.Sub(feeCloser)

		lot.Remaining = lot.Remaining.Sub(consumed)
		closer.Remaining = closer.Remaining.Sub(consumed)

		res.Matches = append(res.Matches, types.NewMatch(
			lot.Exchange, closer.Exchange,
			lot.Time, closer.Time,
			currency, closer.Side,
			consumed,
			lot.Price.Mul(consumed), closer.Price.Mul(consumed),
			feeLot, feeCloser,
			lot.Merged || closer.Merged,
		))

		if !closer.Remaining.IsPositive() {
			if lot.Remaining.IsPositive() {
				q.putBack(lot)
			}
			return
		}
		if q.len() == 0 {
			// over-sell: more closed than was ever opened. Accepted upstream
			// data imprecision; the remainder opens on the queue and shows
			// up in the unmatched view.
			e.log.Warn("execution exceeds open lots, remainder left unmatched",
				logger.F("currency", currency),
				logger.F("side", closer.Side),
				logger.F("remaining", closer.Remaining.String()),
				logger.F("date", closer.Time))
			q.push(closer)
			return
		}
	}
}

// applyTransfer handles one transfer fee event. In basis-only mode it only
// records the debit. In match-affecting mode it consumes open quantity like
// a sell would, but contributes nothing to cost, proceeds or gain and emits
// no match. Returns a residue execution when the fee could not be fully
// consumed.
func (e *Engine) applyTransfer(xfer *types.Execution, q *lotQueue, res *Result) *types.Execution {
	switch e.transferMode {
	case types.TransfersIgnored:
		return nil
	case types.TransfersBasisOnly:
		debit := res.TransferDebits[xfer.Asset]
		res.TransferDebits[xfer.Asset] = debit.Add(xfer.Quantity)
		return nil
	}

	for xfer.Remaining.IsPositive() {
		if q.len() == 0 {
			e.log.Warn("transfer fee exceeds open lots, ignoring remainder",
				logger.F("currency", xfer.Asset),
				logger.F("remaining", xfer.Remaining.String()),
				logger.F("date", xfer.Time))
			return xfer
		}
		lot := q.take()
		consumed := decimal.Min(lot.Remaining, xfer.Remaining)
		// the consumed share of the lot's fee is forfeited with the quantity
		lot.Remaining = lot.Remaining.Sub(consumed)
		xfer.Remaining = xfer.Remaining.Sub(consumed)
		if lot.Remaining.IsPositive() {
			q.putBack(lot)
		}
	}
	return nil
}
