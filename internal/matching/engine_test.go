package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxlot/matcher/internal/logger"
	"github.com/taxlot/matcher/internal/types"
)

var base = time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func exec(asset string, side types.Side, minutes int, qty, price string) *types.Execution {
	return types.NewExecution("kraken", at(minutes), asset, side, d(qty), d(price), decimal.Zero)
}

func xfer(asset string, minutes int, fee string) *types.Execution {
	r := types.TransferRecord{
		Destination: "coinbase",
		Source:      "kraken",
		Time:        at(minutes),
		Asset:       asset,
		Quantity:    d("1"),
		Fee:         d(fee),
	}
	return r.Execution()
}

func run(strategy types.Strategy, mode types.TransferMode, execs ...*types.Execution) *Result {
	return New(strategy, mode, logger.Nop()).Run(execs)
}

func TestFIFOConsumesOldestFirst(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1", "100"),
		exec("BTC", types.Buy, 10, "1", "200"),
		exec("BTC", types.Sell, 20, "1.5", "300"),
	)
	require.Len(t, res.Matches, 2)

	first, second := res.Matches[0], res.Matches[1]
	assert.True(t, first.Quantity.Equal(d("1")))
	assert.True(t, first.AmountOpen.Equal(d("100")))
	assert.True(t, second.Quantity.Equal(d("0.5")))
	assert.True(t, second.AmountOpen.Equal(d("100")), "0.5 of the 200 lot")
	// open dates never decrease under FIFO
	assert.False(t, second.OpenTime.Before(first.OpenTime))

	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.True(t, left[0].Remaining.Equal(d("0.5")))
	assert.True(t, left[0].Price.Equal(d("200")))
}

func TestLIFOConsumesNewestFirst(t *testing.T) {
	res := run(types.LIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1", "100"),
		exec("BTC", types.Buy, 10, "1", "200"),
		exec("BTC", types.Sell, 20, "1.5", "300"),
	)
	require.Len(t, res.Matches, 2)

	first, second := res.Matches[0], res.Matches[1]
	assert.Equal(t, at(10), first.OpenTime)
	assert.True(t, first.AmountOpen.Equal(d("200")))
	assert.Equal(t, at(0), second.OpenTime)
	// open dates never increase under LIFO
	assert.False(t, second.OpenTime.After(first.OpenTime))

	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.True(t, left[0].Price.Equal(d("100")))
}

func TestOverSellRemainderOpensOnQueue(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "3", "100"),
		exec("BTC", types.Sell, 10, "5", "150"),
	)
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].Quantity.Equal(d("3")))

	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.Equal(t, types.Sell, left[0].Side)
	assert.True(t, left[0].Remaining.Equal(d("2")))
}

func TestOverSellRemainderCoveredByLaterBuy(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "3", "100"),
		exec("BTC", types.Sell, 10, "5", "150"),
		exec("BTC", types.Buy, 20, "2", "120"),
	)
	require.Len(t, res.Matches, 2)

	cover := res.Matches[1]
	assert.Equal(t, types.Buy, cover.SettleSide)
	assert.True(t, cover.Quantity.Equal(d("2")))
	assert.True(t, cover.AmountOpen.Equal(d("300")), "opened by the sell at 150")
	assert.True(t, cover.AmountClose.Equal(d("240")))
	assert.Empty(t, res.Leftovers)
}

func TestShortSaleMatches(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("ETH", types.Sell, 0, "2", "3000"),
		exec("ETH", types.Buy, 10, "2", "2500"),
	)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, types.Buy, m.SettleSide)
	assert.True(t, m.AmountOpen.Equal(d("6000")))
	assert.True(t, m.AmountClose.Equal(d("5000")))
}

func TestProportionalFeeConsumption(t *testing.T) {
	lot := exec("BTC", types.Buy, 0, "2", "100")
	lot.Fee = d("10")
	closer := exec("BTC", types.Sell, 10, "1", "150")
	closer.Fee = d("6")

	res := run(types.FIFO, types.TransfersIgnored, lot, closer)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.True(t, m.FeeOpen.Equal(d("5")), "half the lot consumed, half the fee")
	assert.True(t, m.FeeClose.Equal(d("6")))
	assert.True(t, lot.Fee.Equal(d("5")), "unconsumed fee share stays on the lot")
	assert.True(t, m.Gain().Equal(d("39")), "150 - 100 - 5 - 6")
}

func TestTransferMatchingConsumesBasis(t *testing.T) {
	res := run(types.FIFO, types.TransfersMatch,
		exec("BTC", types.Buy, 0, "1", "100"),
		xfer("BTC", 5, "0.1"),
		exec("BTC", types.Buy, 10, "1", "200"),
		exec("BTC", types.Sell, 20, "1", "100"),
	)
	require.Len(t, res.Matches, 2)

	first, second := res.Matches[0], res.Matches[1]
	assert.True(t, first.Quantity.Equal(d("0.9")))
	assert.True(t, first.Gain().IsZero())
	assert.True(t, second.Quantity.Equal(d("0.1")))
	assert.True(t, second.Gain().Equal(d("-10")), "0.1 bought at 200, sold at 100")

	// the transfer itself never emits a match and leaves no leftovers
	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.True(t, left[0].Remaining.Equal(d("0.9")), "second lot partially open")
}

func TestSameSequenceWithoutTransfers(t *testing.T) {
	// the sequence of TestTransferMatchingConsumesBasis minus the transfer:
	// the first lot closes whole at zero gain and the second stays open
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1", "100"),
		exec("BTC", types.Buy, 10, "1", "200"),
		exec("BTC", types.Sell, 20, "1", "100"),
	)
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].Quantity.Equal(d("1")))
	assert.True(t, res.Matches[0].Gain().IsZero())

	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.True(t, left[0].Remaining.Equal(d("1")))
	assert.True(t, left[0].Price.Equal(d("200")))
}

func TestTransferBasisOnlyRecordsDebit(t *testing.T) {
	res := run(types.FIFO, types.TransfersBasisOnly,
		exec("BTC", types.Buy, 0, "1", "100"),
		xfer("BTC", 5, "0.1"),
		exec("BTC", types.Sell, 20, "1", "100"),
	)
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].Quantity.Equal(d("1")), "matching unaffected")
	assert.True(t, res.TransferDebits["BTC"].Equal(d("0.1")))
}

func TestTransferIgnoredMode(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1", "100"),
		xfer("BTC", 5, "0.1"),
	)
	assert.Empty(t, res.Matches)
	assert.Empty(t, res.TransferDebits)
	require.Len(t, res.Leftovers["BTC"], 1)
	assert.True(t, res.Leftovers["BTC"][0].Remaining.Equal(d("1")))
}

func TestTransferShortfallSurfacesResidue(t *testing.T) {
	res := run(types.FIFO, types.TransfersMatch,
		exec("BTC", types.Buy, 0, "0.3", "100"),
		xfer("BTC", 5, "0.5"),
	)
	assert.Empty(t, res.Matches)

	left := res.Leftovers["BTC"]
	require.Len(t, left, 1)
	assert.Equal(t, types.Transfer, left[0].Side)
	assert.True(t, left[0].Remaining.Equal(d("0.2")))
}

func TestTransferDoesNotTouchLotFee(t *testing.T) {
	lot := exec("BTC", types.Buy, 0, "1", "100")
	lot.Fee = d("8")

	res := run(types.FIFO, types.TransfersMatch, lot, xfer("BTC", 5, "0.5"))
	assert.Empty(t, res.Matches)
	assert.True(t, lot.Fee.Equal(d("8")))
	assert.True(t, lot.Remaining.Equal(d("0.5")))
}

func TestCurrenciesMatchIndependently(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1", "100"),
		exec("ETH", types.Buy, 1, "10", "20"),
		exec("ETH", types.Sell, 2, "10", "30"),
		exec("BTC", types.Sell, 3, "1", "150"),
	)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "BTC", res.Matches[0].Asset, "first-appearance currency order")
	assert.Equal(t, "ETH", res.Matches[1].Asset)
	assert.Empty(t, res.Leftovers)
}

func TestMassConservation(t *testing.T) {
	res := run(types.FIFO, types.TransfersIgnored,
		exec("BTC", types.Buy, 0, "1.7", "100"),
		exec("BTC", types.Buy, 5, "2.3", "110"),
		exec("BTC", types.Sell, 10, "3.1", "150"),
	)

	matched := decimal.Zero
	for _, m := range res.Matches {
		matched = matched.Add(m.Quantity)
	}
	open := decimal.Zero
	for _, e := range res.Leftovers["BTC"] {
		open = open.Add(e.Remaining)
	}
	assert.True(t, matched.Add(open).Equal(d("4")), "bought quantity fully accounted for")
}

func TestMergedFlagPropagates(t *testing.T) {
	lot := exec("BTC", types.Buy, 0, "1", "100")
	extra := exec("BTC", types.Buy, 1, "1", "100")
	lot.Absorb(extra)

	res := run(types.FIFO, types.TransfersIgnored, lot, exec("BTC", types.Sell, 10, "2", "150"))
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].Merged)
}

func TestInterleaveTransfersExecutionFirstOnTie(t *testing.T) {
	buy := exec("BTC", types.Buy, 5, "1", "100")
	transfers := []types.TransferRecord{{
		Destination: "coinbase", Source: "kraken",
		Time: at(5), Asset: "BTC", Quantity: d("1"), Fee: d("0.1"),
	}}

	out := InterleaveTransfers([]*types.Execution{buy}, transfers)
	require.Len(t, out, 2)
	assert.Equal(t, types.Buy, out[0].Side)
	assert.Equal(t, types.Transfer, out[1].Side)
}

func TestInterleaveTransfersByTimestamp(t *testing.T) {
	execs := []*types.Execution{
		exec("BTC", types.Buy, 0, "1", "100"),
		exec("BTC", types.Sell, 10, "1", "150"),
	}
	transfers := []types.TransferRecord{{
		Destination: "coinbase", Source: "kraken",
		Time: at(4), Asset: "BTC", Quantity: d("1"), Fee: d("0.1"),
	}}

	out := InterleaveTransfers(execs, transfers)
	require.Len(t, out, 3)
	assert.Equal(t, types.Transfer, out[1].Side)
}

func TestLotQueueStrategies(t *testing.T) {
	a := exec("BTC", types.Buy, 0, "1", "100")
	b := exec("BTC", types.Buy, 1, "1", "200")

	fifo := newLotQueue(types.FIFO)
	fifo.push(a)
	fifo.push(b)
	assert.Same(t, a, fifo.take())

	lifo := newLotQueue(types.LIFO)
	lifo.push(a)
	lifo.push(b)
	assert.Same(t, b, lifo.take())
	lifo.putBack(b)
	assert.Same(t, b, lifo.peek())
}
