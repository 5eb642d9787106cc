package timescale

import (
	"strings"
	"testing"
)

func TestLatestQuery(t *testing.T) {
	q := latestQuery("ftx_btc-perp_trade", "datetime, price::text")

	for _, frag := range []string{
		`WITH time_filtered AS (SELECT * FROM "ftx_btc-perp_trade" ORDER BY datetime DESC LIMIT 1000)`,
		"SELECT datetime, price::text FROM time_filtered",
		"ORDER BY dollar_cumsum DESC LIMIT 1",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("latest query missing %q in %q", frag, q)
		}
	}
}

func TestFirstQuery(t *testing.T) {
	q := firstQuery("ftx_btc-perp_trade", "datetime")

	for _, frag := range []string{
		"ORDER BY datetime ASC LIMIT 1000",
		"ORDER BY dollar_cumsum ASC LIMIT 1",
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("first query missing %q in %q", frag, q)
		}
	}
}

func TestRangeQuery(t *testing.T) {
	q := rangeQuery("ftx_btc-perp_dollarbar_10000000", "datetime, close::text")

	// Half-open window: inclusive lower bound, exclusive upper bound.
	for _, frag := range []string{
		"WHERE datetime >= $1 AND datetime < $2",
		"ORDER BY dollar_cumsum ASC",
		`FROM "ftx_btc-perp_dollarbar_10000000"`,
	} {
		if !strings.Contains(q, frag) {
			t.Errorf("range query missing %q in %q", frag, q)
		}
	}
	if strings.Contains(q, "LIMIT") {
		t.Error("range query must not cap the row count")
	}
}

func TestNullIfEmpty(t *testing.T) {
	if got := nullIfEmpty(""); got != nil {
		t.Errorf("nullIfEmpty(\"\") = %v, want nil", got)
	}
	if got := nullIfEmpty("t-1"); got == nil || *got != "t-1" {
		t.Errorf(`nullIfEmpty("t-1") = %v, want "t-1"`, got)
	}
}
