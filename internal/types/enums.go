package types

import "fmt"

// Side is the direction of an execution. Transfer is a pseudo-side used for
// wallet-to-wallet moves whose network fee consumes held quantity.
type Side string

const (
	Buy      Side = "Buy"
	Sell     Side = "Sell"
	Transfer Side = "Transfer"
)

// Opposite returns the matching side. Transfer has no opposite.
func (s Side) Opposite() Side {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	}
	return s
}

// Strategy selects which end of a lot queue closing executions consume from.
type Strategy int

const (
	FIFO Strategy = iota
	LIFO
)

func (s Strategy) String() string {
	if s == LIFO {
		return "lifo"
	}
	return "fifo"
}

// ParseStrategy converts a command-line strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	}
	return FIFO, fmt.Errorf("unknown strategy %q (want fifo or lifo)", s)
}

// PricingMode selects how the top of a crypto/crypto pair is priced: Indirect
// multiplies the trade's quoted cross price by the counter-currency's table
// price, Direct ignores the trade price and reads the table for the asset.
type PricingMode int

const (
	Indirect PricingMode = iota
	Direct
)

func (p PricingMode) String() string {
	if p == Direct {
		return "direct"
	}
	return "indirect"
}

// TransferMode controls how transfer fee quantities interact with matching.
type TransferMode int

const (
	// TransfersIgnored means no transfer data was supplied.
	TransfersIgnored TransferMode = iota
	// TransfersBasisOnly records transfer fees as debits against remaining
	// basis without changing what matches against what.
	TransfersBasisOnly
	// TransfersMatch consumes open lot quantity in situ, at zero gain.
	TransfersMatch
)

// View selects the output projection.
type View string

const (
	ViewMatch     View = "match"
	ViewBasis     View = "basis"
	ViewUnmatched View = "unmatched"
	ViewSummary   View = "summary"
)

// ParseView converts a command-line view name.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewMatch, ViewBasis, ViewUnmatched, ViewSummary:
		return View(s), nil
	}
	return ViewMatch, fmt.Errorf("unknown output view %q (want match, basis, unmatched or summary)", s)
}
