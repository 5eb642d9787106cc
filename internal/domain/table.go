package domain

import (
	"fmt"
	"strings"
)

// Market identifies one instrument on one exchange, e.g. ("ftx", "BTC-PERP").
// Components are lower-cased when deriving physical table names.
//
// The underscore delimiter is not escaped: two identities whose components
// themselves contain underscores can alias the same table name. Exchange and
// symbol spellings are a documented constraint on the caller, not a runtime
// check.
type Market struct {
	Exchange string
	Symbol   string
}

// Validate checks that both components are non-empty and contain only
// characters safe to embed in a quoted SQL identifier.
func (m Market) Validate() error {
	if err := validateComponent("exchange", m.Exchange); err != nil {
		return err
	}
	return validateComponent("symbol", m.Symbol)
}

// TradeTableName derives the physical trade table name,
// "{exchange}_{symbol}_trade" lower-cased.
func (m Market) TradeTableName() string {
	return strings.ToLower(m.Exchange + "_" + m.Symbol + "_trade")
}

// DailyViewName derives the name of the companion daily cumulative-volume
// view of the trade table.
func (m Market) DailyViewName() string {
	return m.TradeTableName() + "_dollar_cumsum_daily"
}

// BarSeries identifies one bar table: a market, a bar family, and the bucket
// interval. For dollar-bars the interval is a notional amount ("10000000"),
// for time-bars a duration label ("1h", "86400").
type BarSeries struct {
	Market
	Kind     BarKind
	Interval string
}

// Validate checks the market components, the bar kind, and the interval.
func (s BarSeries) Validate() error {
	if err := s.Market.Validate(); err != nil {
		return err
	}
	if !s.Kind.Valid() {
		return fmt.Errorf("%w: bar kind %q", ErrInvalidIdentifier, string(s.Kind))
	}
	return validateComponent("interval", s.Interval)
}

// TableName derives the physical bar table name,
// "{exchange}_{symbol}_{kind}_{interval}" lower-cased.
func (s BarSeries) TableName() string {
	return strings.ToLower(s.Exchange + "_" + s.Symbol + "_" + string(s.Kind) + "_" + s.Interval)
}

// validateComponent enforces the allow-listed identifier character set.
// Identifiers cannot be bound as statement parameters, so everything that
// ends up inside DDL or a quoted table reference is restricted to characters
// that cannot break out of a double-quoted identifier.
func validateComponent(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidIdentifier, field)
	}
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '/' || r == '-':
		default:
			return fmt.Errorf("%w: %s %q contains %q", ErrInvalidIdentifier, field, value, string(r))
		}
	}
	return nil
}
