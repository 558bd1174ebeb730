package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Match pairs a closing execution with the open lot it consumed. Immutable
// once emitted. Open and close amounts and fees are kept separate so the
// report layer can combine them per Form 8949 conventions:
// proceeds = AmountClose - FeeClose, cost basis = AmountOpen + FeeOpen.
type Match struct {
	ExchangeOpen  string
	ExchangeClose string
	OpenTime      time.Time
	CloseTime     time.Time
	Asset         string
	// SettleSide is the side of the closing execution.
	SettleSide  Side
	Quantity    decimal.Decimal
	AmountOpen  decimal.Decimal
	AmountClose decimal.Decimal
	FeeOpen     decimal.Decimal
	FeeClose    decimal.Decimal
	Merged      bool
}

// NewMatch quantizes quantity to 4 decimal places and money amounts to 2,
// rounding ties to even.
func NewMatch(exchangeOpen, exchangeClose string, openTime, closeTime time.Time, asset string, settleSide Side,
	quantity, amountOpen, amountClose, feeOpen, feeClose decimal.Decimal, merged bool) *Match {
	return &Match{
		ExchangeOpen:  exchangeOpen,
		ExchangeClose: exchangeClose,
		OpenTime:      openTime,
		CloseTime:     closeTime,
		Asset:         asset,
		SettleSide:    settleSide,
		Quantity:      quantity.RoundBank(4),
		AmountOpen:    amountOpen.RoundBank(2),
		AmountClose:   amountClose.RoundBank(2),
		FeeOpen:       feeOpen.RoundBank(2),
		FeeClose:      feeClose.RoundBank(2),
		Merged:        merged,
	}
}

// Proceeds is the close amount net of the closing fee.
func (m *Match) Proceeds() decimal.Decimal {
	return m.AmountClose.Sub(m.FeeClose)
}

// CostBasis is the open amount plus the opening fee.
func (m *Match) CostBasis() decimal.Decimal {
	return m.AmountOpen.Add(m.FeeOpen)
}

// Gain is proceeds minus cost basis.
func (m *Match) Gain() decimal.Decimal {
	return m.AmountClose.Sub(m.AmountOpen).Sub(m.FeeOpen).Sub(m.FeeClose)
}

// String renders the Form 8949 tab-separated match line: description,
// acquisition and disposition dates, proceeds, basis, the merged marker,
// a zero adjustment column, and gain.
func (m *Match) String() string {
	merged := ""
	if m.Merged {
		merged = "M"
	}
	description := m.SettleSide.String() + " " + m.Quantity.StringFixed(4) + " " + m.Asset +
		" (" + m.ExchangeOpen + " -> " + m.ExchangeClose + ")"
	return strings.Join([]string{
		description,
		m.OpenTime.Format("01/02/2006"),
		m.CloseTime.Format("01/02/2006"),
		m.Proceeds().StringFixed(2),
		m.CostBasis().StringFixed(2),
		merged,
		"0",
		m.Gain().StringFixed(2),
	}, "\t")
}

func (s Side) String() string { return string(s) }
