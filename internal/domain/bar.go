package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BarKind selects one of the two aggregate table families.
type BarKind string

const (
	// DollarBar buckets trades by a fixed quantity of traded notional value.
	DollarBar BarKind = "dollarbar"
	// TimeBar buckets trades by a fixed wall-clock interval.
	TimeBar BarKind = "timebar"
)

// Valid reports whether k names a known bar family.
func (k BarKind) Valid() bool {
	return k == DollarBar || k == TimeBar
}

// Bar is an OHLC aggregate over a contiguous slice of trades. Datetime is the
// bar close time and the partition key; DatetimeFrom is the open time. ID and
// IDFrom carry the boundary trade identifiers and may be empty.
//
// Dollar-bars are unique on (datetime, id); time-bars on datetime alone, one
// bar per wall-clock interval.
type Bar struct {
	Datetime     time.Time
	DatetimeFrom time.Time
	ID           string
	IDFrom       string

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Volume           decimal.Decimal
	DollarVolume     decimal.Decimal
	DollarBuyVolume  decimal.Decimal
	DollarSellVolume decimal.Decimal

	// Subset of the dollar volumes attributable to forced liquidations.
	DollarLiquidationVolume     decimal.Decimal
	DollarLiquidationBuyVolume  decimal.Decimal
	DollarLiquidationSellVolume decimal.Decimal

	DollarCumsum     decimal.Decimal
	DollarBuyCumsum  decimal.Decimal
	DollarSellCumsum decimal.Decimal
}

// BarPoint is the published projection of a bar returned by range loads. It
// drops the boundary trade ids, the base-asset volume and the total
// liquidation volume, which are bookkeeping detail rather than part of the
// published shape.
type BarPoint struct {
	Datetime time.Time

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	DollarVolume     decimal.Decimal
	DollarBuyVolume  decimal.Decimal
	DollarSellVolume decimal.Decimal

	DollarLiquidationBuyVolume  decimal.Decimal
	DollarLiquidationSellVolume decimal.Decimal

	DollarCumsum     decimal.Decimal
	DollarBuyCumsum  decimal.Decimal
	DollarSellCumsum decimal.Decimal
}
