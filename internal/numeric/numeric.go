// Package numeric is the text codec for NUMERIC column values.
//
// TimescaleDB transports NUMERIC natively in a binary format the float64
// path would round; every decimal column is therefore read back as text
// (::text casts) and written as its canonical string form. Encode and Decode
// are inverse over the exact-decimal domain: Decode(Encode(x)) == x.
package numeric

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Encode renders d in its canonical text form, suitable both as a statement
// parameter for a NUMERIC column and as a cache or export payload.
func Encode(d decimal.Decimal) string {
	return d.String()
}

// Decode parses the text form of a NUMERIC column value. A value that does
// not parse exactly is a hard error; there is deliberately no approximate
// float fallback.
func Decode(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("numeric: decode %q: %w", s, err)
	}
	return d, nil
}
