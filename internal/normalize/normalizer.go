// Package normalize flattens raw cross-currency trades into single-currency
// executions priced in the output currency.
package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/logger"
	"github.com/taxlot/matcher/internal/prices"
	"github.com/taxlot/matcher/internal/types"
)

// Normalizer splits each trade into up to two executions (one per pair leg)
// and resolves their prices and fees into the output currency. Legs in the
// history or output currency are dropped: holding the output currency is not
// a reportable position. Legs in the fiat exclusion set are dropped from
// matching as well.
type Normalizer struct {
	resolver *prices.Resolver
	fiat     map[string]bool
	log      *logger.Logger
}

// New creates a normalizer. fiat is the configured fiat-exclusion set.
func New(resolver *prices.Resolver, fiat []string, log *logger.Logger) *Normalizer {
	f := make(map[string]bool, len(fiat))
	for _, c := range fiat {
		f[c] = true
	}
	return &Normalizer{resolver: resolver, fiat: f, log: log}
}

// Run normalizes the trades in order. Output preserves the input's
// chronological order; the two legs of one trade appear asset leg first.
// A price-resolution failure aborts the whole run.
func (n *Normalizer) Run(trades []types.Trade) ([]*types.Execution, error) {
	var executions []*types.Execution
	for i := range trades {
		legs, err := n.normalize(&trades[i])
		if err != nil {
			return nil, fmt.Errorf("trade %d (%s): %w", i+1, trades[i].String(), err)
		}
		executions = append(executions, legs...)
	}
	return executions, nil
}

func (n *Normalizer) normalize(t *types.Trade) ([]*types.Execution, error) {
	if n.fiat[t.Asset] && n.fiat[t.Underlying] {
		n.log.Debug("skipping fiat/fiat trade", logger.F("trade", t.String()))
		return nil, nil
	}

	dropAsset := n.resolver.IsInOut(t.Asset) || n.fiat[t.Asset]
	dropUnderlying := n.resolver.IsInOut(t.Underlying) || n.fiat[t.Underlying]
	if dropAsset && dropUnderlying {
		return nil, nil
	}

	n.log.Debug("normalizing trade",
		logger.F("side", t.Side), logger.F("pair", t.Asset+"/"+t.Underlying),
		logger.F("quantity", t.Quantity.StringFixed(4)), logger.F("price", t.Price.String()),
		logger.F("date", t.Time))

	// The asset leg keeps the trade side and quantity; the underlying leg is
	// the mirrored opposite side with the bottom quantity.
	topQty, bottomQty := t.Quantity, t.BottomQuantity()

	var buy, sell *types.Execution
	if !dropAsset {
		price, err := n.resolver.AssetPrice(t.Asset, t.Underlying, t.Price, t.Time)
		if err != nil {
			return nil, err
		}
		e := types.NewExecution(t.Exchange, t.Time, t.Asset, t.Side, topQty, price, decimal.Zero)
		if t.Side == types.Buy {
			buy = e
		} else {
			sell = e
		}
	}
	if !dropUnderlying {
		price, err := n.resolver.UnderlyingPrice(t.Underlying, t.Time)
		if err != nil {
			return nil, err
		}
		e := types.NewExecution(t.Exchange, t.Time, t.Underlying, t.Side.Opposite(), bottomQty, price, decimal.Zero)
		if t.Side == types.Buy {
			sell = e
		} else {
			buy = e
		}
	}

	n.attachFee(t, buy, sell)

	// Asset leg first, so ties within one trade keep a stable order.
	var legs []*types.Execution
	for _, e := range []*types.Execution{buy, sell} {
		if e != nil && e.Asset == t.Asset {
			legs = append(legs, e)
		}
	}
	for _, e := range []*types.Execution{buy, sell} {
		if e != nil && e.Asset == t.Underlying && e.Asset != t.Asset {
			legs = append(legs, e)
		}
	}

	// A fee deduction can consume a dust leg entirely. A zero or negative
	// quantity must never reach the matching queues, where lot consumption
	// divides by Remaining.
	kept := legs[:0]
	for _, e := range legs {
		if !e.Remaining.IsPositive() {
			n.log.Warn("fee consumed the whole leg, dropping it",
				logger.F("currency", e.Asset), logger.F("quantity", e.Quantity.String()),
				logger.F("date", e.Time))
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}

// attachFee resolves the trade fee into the output currency and attaches it
// to exactly one leg: the buy leg when the fee was charged in its currency or
// the sell leg is absent or non-reportable, otherwise the sell leg. When the
// exchange did not already deduct the fee from the quantity, the attached
// leg's quantity is reduced by the raw fee amount.
func (n *Normalizer) attachFee(t *types.Trade, buy, sell *types.Execution) {
	var feeOut decimal.Decimal
	if t.FeeFinal.IsPositive() {
		feeOut = t.FeeFinal
	} else {
		feeOut = t.Fee.Mul(n.resolver.FeePrice(t.FeeCurrency, t.Time))
	}

	attachToBuy := buy != nil &&
		(buy.Asset == t.FeeCurrency || sell == nil || n.resolver.IsInOut(sell.Asset))

	target := sell
	if attachToBuy {
		target = buy
	}
	if target == nil {
		return
	}
	if !t.FeeAttached {
		target.Quantity = target.Quantity.Sub(t.Fee)
		target.Remaining = target.Quantity
	}
	target.Fee = feeOut
}
