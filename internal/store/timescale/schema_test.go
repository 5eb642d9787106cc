package timescale

import (
	"strings"
	"testing"

	"github.com/takahiro47/marketstore/internal/domain"
)

func TestTradeTableDDL(t *testing.T) {
	ddl := tradeTableDDL("ftx_btc-perp_trade")

	wantFragments := []string{
		`DROP TABLE IF EXISTS "ftx_btc-perp_trade" CASCADE`,
		`CREATE TABLE "ftx_btc-perp_trade"`,
		"datetime TIMESTAMP WITH TIME ZONE NOT NULL",
		"side enum_side NOT NULL",
		"liquidation BOOL NOT NULL",
		"dollar_sell_cumsum NUMERIC NOT NULL",
		"UNIQUE (datetime, id)",
		`CREATE INDEX ON "ftx_btc-perp_trade" (datetime DESC);`,
		`CREATE INDEX ON "ftx_btc-perp_trade" (datetime DESC, dollar_cumsum);`,
		`SELECT create_hypertable('ftx_btc-perp_trade', 'datetime');`,
	}
	for _, frag := range wantFragments {
		if !strings.Contains(ddl, frag) {
			t.Errorf("trade DDL missing %q", frag)
		}
	}
}

func TestBarTableDDLUniqueness(t *testing.T) {
	dollar := barTableDDL("ftx_btc-perp_dollarbar_10000000", domain.DollarBar)
	if !strings.Contains(dollar, "UNIQUE (datetime, id)") {
		t.Error("dollar-bar DDL must be unique on (datetime, id)")
	}

	timebar := barTableDDL("ftx_btc-perp_timebar_1h", domain.TimeBar)
	if !strings.Contains(timebar, "UNIQUE (datetime)") || strings.Contains(timebar, "UNIQUE (datetime, id)") {
		t.Error("time-bar DDL must be unique on datetime alone")
	}
}

func TestBarTableDDLColumns(t *testing.T) {
	ddl := barTableDDL("ftx_btc-perp_dollarbar_10000000", domain.DollarBar)

	for _, col := range []string{
		"datetime_from TIMESTAMP WITH TIME ZONE NOT NULL",
		"id_from TEXT",
		"open NUMERIC NOT NULL",
		"dollar_liquidation_sell_volume NUMERIC NOT NULL",
		"dollar_cumsum NUMERIC NOT NULL",
		"SELECT create_hypertable('ftx_btc-perp_dollarbar_10000000', 'datetime');",
	} {
		if !strings.Contains(ddl, col) {
			t.Errorf("bar DDL missing %q", col)
		}
	}

	// Bars carry no side or liquidation flag columns, only dollar volumes.
	if strings.Contains(ddl, "enum_side") {
		t.Error("bar DDL must not reference enum_side")
	}
}

func TestDailyViewDDL(t *testing.T) {
	drop, create := dailyViewDDL("ftx_btc-perp_trade", "ftx_btc-perp_trade_dollar_cumsum_daily")

	if !strings.Contains(drop, `DROP MATERIALIZED VIEW IF EXISTS "ftx_btc-perp_trade_dollar_cumsum_daily" CASCADE`) {
		t.Errorf("drop statement = %q", drop)
	}

	for _, frag := range []string{
		"WITH (timescaledb.continuous)",
		"time_bucket(INTERVAL '1 day', datetime) AS time",
		"MAX(dollar_cumsum) AS dollar_cumsum",
		"MAX(dollar_buy_cumsum) AS dollar_buy_cumsum",
		"MAX(dollar_sell_cumsum) AS dollar_sell_cumsum",
		"last(price, datetime) AS close",
		`FROM "ftx_btc-perp_trade"`,
		"WITH NO DATA",
	} {
		if !strings.Contains(create, frag) {
			t.Errorf("view DDL missing %q", frag)
		}
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ftx_btc-perp_trade", `"ftx_btc-perp_trade"`},
		{"binance_btc/usdt_trade", `"binance_btc/usdt_trade"`},
		{`odd"name`, `"odd""name"`},
	}
	for _, tt := range tests {
		if got := quoteIdent(tt.in); got != tt.want {
			t.Errorf("quoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
