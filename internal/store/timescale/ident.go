package timescale

import "strings"

// quoteIdent wraps a table or view name in double quotes for use in DDL and
// table references, which cannot be bound as parameters. Name components are
// validated against an allow-listed character set in the domain layer before
// they reach this point; doubling embedded quotes keeps the quoting total
// anyway.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
