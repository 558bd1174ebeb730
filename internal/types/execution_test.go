package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewExecutionStartsOpen(t *testing.T) {
	e := NewExecution("kraken", time.Now(), "BTC", Buy, d("2"), d("100"), d("1"))

	assert.True(t, e.Remaining.Equal(e.Quantity))
	assert.False(t, e.Merged)
}

func TestNewExecutionTransferConsumesFee(t *testing.T) {
	e := NewExecution("a -> b", time.Now(), "BTC", Transfer, d("5"), decimal.Zero, d("0.1"))

	// only the fee quantity is consumable, not the moved amount
	assert.True(t, e.Quantity.Equal(d("0.1")))
	assert.True(t, e.Remaining.Equal(d("0.1")))
}

func TestAbsorbWeightsPriceByQuantity(t *testing.T) {
	ts := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	e1 := NewExecution("kraken", ts, "BTC", Buy, d("1"), d("100"), d("2"))
	e2 := NewExecution("coinbase", ts.Add(time.Minute), "BTC", Buy, d("3"), d("200"), d("4"))

	e1.Absorb(e2)

	assert.True(t, e1.Quantity.Equal(d("4")))
	assert.True(t, e1.Price.Equal(d("175")), "expected weighted average 175, got %s", e1.Price)
	assert.True(t, e1.Fee.Equal(d("6")))
	assert.True(t, e1.Merged)
	assert.Equal(t, "kraken", e1.Exchange)
	assert.True(t, e1.Time.Equal(ts))
}

func TestAbsorbKeepsAuditTrail(t *testing.T) {
	ts := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	e1 := NewExecution("kraken", ts, "BTC", Buy, d("1"), d("100"), decimal.Zero)
	e2 := NewExecution("kraken", ts.Add(time.Minute), "BTC", Buy, d("1"), d("100"), decimal.Zero)
	e3 := NewExecution("kraken", ts.Add(2*time.Minute), "BTC", Buy, d("1"), d("100"), decimal.Zero)

	e1.Absorb(e2)
	e1.Absorb(e3)

	require.Len(t, e1.Constituents, 3)
	// snapshots keep pre-merge values
	assert.True(t, e1.Constituents[0].Quantity.Equal(d("1")))
	assert.False(t, e1.Constituents[0].Merged)
	assert.True(t, e1.Quantity.Equal(d("3")))
}

func TestAbsorbSamePriceSkipsAveraging(t *testing.T) {
	ts := time.Now()
	e1 := NewExecution("x", ts, "ETH", Sell, d("1"), d("50"), decimal.Zero)
	e2 := NewExecution("x", ts, "ETH", Sell, d("2"), d("50"), decimal.Zero)

	e1.Absorb(e2)

	assert.True(t, e1.Price.Equal(d("50")))
	assert.True(t, e1.Quantity.Equal(d("3")))
}

func TestMatchAmounts(t *testing.T) {
	open := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	closeT := time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC)
	m := NewMatch("kraken", "coinbase", open, closeT, "BTC", Sell,
		d("0.5"), d("100"), d("150"), d("1"), d("2"), false)

	assert.True(t, m.CostBasis().Equal(d("101")))
	assert.True(t, m.Proceeds().Equal(d("148")))
	assert.True(t, m.Gain().Equal(d("47")))
}

func TestMatchStringIsForm8949Line(t *testing.T) {
	open := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	closeT := time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC)
	m := NewMatch("kraken", "coinbase", open, closeT, "BTC", Sell,
		d("0.5"), d("100"), d("150"), d("1"), d("2"), true)

	want := "Sell 0.5000 BTC (kraken -> coinbase)\t01/02/2021\t06/03/2021\t148.00\t101.00\tM\t0\t47.00"
	assert.Equal(t, want, m.String())
}

func TestMatchQuantization(t *testing.T) {
	now := time.Now()
	m := NewMatch("a", "b", now, now, "ETH", Sell,
		d("0.123456"), d("10.005"), d("10.015"), d("10.004"), decimal.Zero, false)

	assert.Equal(t, "0.1235", m.Quantity.StringFixed(4))
	// ties round to even
	assert.Equal(t, "10.00", m.AmountOpen.StringFixed(2))
	assert.Equal(t, "10.02", m.AmountClose.StringFixed(2))
	assert.Equal(t, "10.00", m.FeeOpen.StringFixed(2))
}

func TestTransferRecordExecution(t *testing.T) {
	ts := time.Now()
	rec := TransferRecord{
		Destination: "coinbase",
		Source:      "kraken",
		Time:        ts,
		Asset:       "BTC",
		Quantity:    d("5"),
		Fee:         d("0.0005"),
	}

	e := rec.Execution()
	assert.Equal(t, Transfer, e.Side)
	assert.Equal(t, "kraken -> coinbase", e.Exchange)
	assert.True(t, e.Remaining.Equal(d("0.0005")))
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, Transfer, Transfer.Opposite())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("lifo")
	require.NoError(t, err)
	assert.Equal(t, LIFO, s)

	_, err = ParseStrategy("hifo")
	assert.Error(t, err)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("summary")
	require.NoError(t, err)
	assert.Equal(t, ViewSummary, v)

	_, err = ParseView("everything")
	assert.Error(t, err)
}
