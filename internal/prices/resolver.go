package prices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/taxlot/matcher/internal/logger"
	"github.com/taxlot/matcher/internal/types"
)

// Resolver converts trade prices into the output currency. The table is
// denominated in the history currency; when the output currency differs,
// every resolved price is divided by the output currency's own table price
// on the same date.
type Resolver struct {
	table   *Table
	history string
	output  string
	mode    types.PricingMode
	quiet   map[string]bool
	log     *logger.Logger
}

// NewResolver builds a resolver. quiet lists currencies (typically fiat) for
// which a missing fee price is expected and not worth a debug line.
func NewResolver(table *Table, history, output string, mode types.PricingMode, quiet []string, log *logger.Logger) *Resolver {
	q := make(map[string]bool, len(quiet))
	for _, c := range quiet {
		q[c] = true
	}
	return &Resolver{table: table, history: history, output: output, mode: mode, quiet: q, log: log}
}

// IsInOut reports whether the currency is the history or output currency.
// Legs in either are dropped at normalization, since they need no further
// conversion.
func (r *Resolver) IsInOut(currency string) bool {
	return currency == r.history || currency == r.output
}

// Mode returns the configured pricing mode.
func (r *Resolver) Mode() types.PricingMode { return r.mode }

// outputFactor is the output currency's price in the history currency on the
// date; 1 when they are the same currency.
func (r *Resolver) outputFactor(date time.Time) (decimal.Decimal, error) {
	if r.output == r.history {
		return decimal.NewFromInt(1), nil
	}
	return r.table.Lookup(r.output, date)
}

// AssetPrice resolves the top leg's unit price in the output currency.
//
// Three cases by what the underlying is:
//   - the output currency: the trade price is already the answer;
//   - the history currency: trade price divided by the output factor;
//   - anything else (crypto/crypto): direct mode reads the asset's own table
//     price, indirect mode multiplies the trade's cross price by the
//     underlying's table price.
func (r *Resolver) AssetPrice(asset, underlying string, tradePrice decimal.Decimal, date time.Time) (decimal.Decimal, error) {
	if underlying == r.output {
		return tradePrice, nil
	}
	out, err := r.outputFactor(date)
	if err != nil {
		return decimal.Zero, err
	}
	if underlying == r.history {
		return tradePrice.Div(out), nil
	}

	if r.mode == types.Direct {
		p, err := r.table.Lookup(asset, date)
		if err != nil {
			return decimal.Zero, err
		}
		return p.Div(out), nil
	}

	base := decimal.NewFromInt(1)
	if underlying != asset {
		base, err = r.table.Lookup(underlying, date)
		if err != nil {
			return decimal.Zero, err
		}
	}
	return base.Mul(tradePrice).Div(out), nil
}

// UnderlyingPrice resolves the bottom leg's unit price in the output
// currency. The bottom leg always prices directly from the table; the
// trade's cross price says nothing about the underlying's absolute level.
func (r *Resolver) UnderlyingPrice(underlying string, date time.Time) (decimal.Decimal, error) {
	out, err := r.outputFactor(date)
	if err != nil {
		return decimal.Zero, err
	}
	p, err := r.table.Lookup(underlying, date)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Div(out), nil
}

// FeePrice resolves one unit of the fee currency into the output currency.
// Unlike execution prices this is lenient: a fee currency with no table entry
// converts to zero rather than aborting the run.
func (r *Resolver) FeePrice(feeCurrency string, date time.Time) decimal.Decimal {
	if feeCurrency == r.output {
		return decimal.NewFromInt(1)
	}
	out, err := r.outputFactor(date)
	if err != nil {
		return decimal.Zero
	}
	if feeCurrency == r.history {
		return decimal.NewFromInt(1).Div(out)
	}
	p, err := r.table.Lookup(feeCurrency, date)
	if err != nil {
		if !r.quiet[feeCurrency] {
			r.log.Debug("no fee price, fee treated as zero",
				logger.F("currency", feeCurrency), logger.F("date", date.Format(dateLayout)))
		}
		return decimal.Zero
	}
	return p.Div(out)
}
