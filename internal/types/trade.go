package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one raw fill as exported by an exchange: a potentially
// cross-currency pair Asset/Underlying (A/B), a side, and fee metadata.
// Trades are the input to normalization and never reach the matching engine
// directly.
type Trade struct {
	Exchange   string
	Time       time.Time
	Asset      string // top of the pair (A in A/B)
	Underlying string // bottom of the pair (B in A/B)
	Side       Side
	// Price is denominated in Underlying.
	Price decimal.Decimal
	// Quantity is denominated in Asset.
	Quantity decimal.Decimal
	// Fee is denominated in FeeCurrency.
	Fee         decimal.Decimal
	FeeCurrency string
	// FeeFinal, when nonzero, is the fee already expressed in the output
	// currency and is used verbatim.
	FeeFinal decimal.Decimal
	// FeeAttached reports whether the fee was already deducted from Quantity
	// by the exchange.
	FeeAttached bool
	// AltQuantity is the bottom-leg quantity when the export supplies it;
	// otherwise the leg quantity falls back to Quantity * Price, a documented
	// source of rounding drift.
	AltQuantity    decimal.Decimal
	HasAltQuantity bool
}

// BottomQuantity is the quantity of the underlying leg.
func (t *Trade) BottomQuantity() decimal.Decimal {
	if t.HasAltQuantity {
		return t.AltQuantity
	}
	return t.Quantity.Mul(t.Price)
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s/%s: %s %s @ %s (fee %s) on %s",
		t.Asset, t.Underlying, t.Side, t.Quantity.String(), t.Price.StringFixed(4), t.Fee.StringFixed(2), t.Exchange)
}

// TransferRecord is one wallet-to-wallet move. Destination, Source and
// Quantity are informational; only the fee consumes held quantity.
type TransferRecord struct {
	Destination string
	Source      string
	Time        time.Time
	Asset       string
	Quantity    decimal.Decimal
	Fee         decimal.Decimal
}

// Execution converts the transfer into its pseudo-execution form, consuming
// the fee quantity of the asset.
func (t *TransferRecord) Execution() *Execution {
	route := fmt.Sprintf("%s -> %s", t.Source, t.Destination)
	return NewExecution(route, t.Time, t.Asset, Transfer, t.Quantity, decimal.Zero, t.Fee)
}
