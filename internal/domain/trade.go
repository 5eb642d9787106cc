package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the taker side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Trade is a single exchange trade print. Rows are fully derived by the
// caller: this layer stores the running dollar cumulative sums, it never
// computes them.
//
// All monetary and quantity fields are exact decimals. They cross the storage
// boundary as text so NUMERIC column values are never squeezed through binary
// floating point.
type Trade struct {
	Datetime    time.Time
	ID          string // exchange-assigned, empty when the exchange reports none
	Side        Side
	Liquidation bool

	Price        decimal.Decimal
	Volume       decimal.Decimal
	DollarVolume decimal.Decimal

	// Running totals, non-decreasing in datetime order within a table.
	// DollarBuyCumsum + DollarSellCumsum == DollarCumsum.
	DollarCumsum     decimal.Decimal
	DollarBuyCumsum  decimal.Decimal
	DollarSellCumsum decimal.Decimal
}

// LatestPrice is a snapshot of the most recent trade of a market, small
// enough to keep in cache.
type LatestPrice struct {
	Price        decimal.Decimal
	DollarCumsum decimal.Decimal
	Datetime     time.Time
}
