package timescale

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/takahiro47/marketstore/internal/domain"
)

// Schema provisions the per-market hypertables and their supporting objects.
// Ensure calls with force=false are idempotent no-ops once the table exists;
// force=true drops and recreates, discarding all rows.
type Schema struct {
	pool *pgxpool.Pool
}

// NewSchema creates a Schema backed by the given connection pool.
func NewSchema(pool *pgxpool.Pool) *Schema {
	return &Schema{pool: pool}
}

// EnsureTradeTable provisions the trade table for a market together with its
// daily cumulative-volume view.
func (s *Schema) EnsureTradeTable(ctx context.Context, m domain.Market, force bool) error {
	if err := m.Validate(); err != nil {
		return err
	}

	table := m.TradeTableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return err
	}
	if exists && !force {
		return nil
	}

	// The table, its indexes and the hypertable registration go out as one
	// parameterless multi-statement batch: pgx runs it over the simple
	// protocol inside a single implicit transaction, so a failure leaves no
	// half-applied DDL.
	if _, err := s.pool.Exec(ctx, tradeTableDDL(table)); err != nil {
		return fmt.Errorf("timescale: create trade table %s: %w", table, err)
	}

	// Continuous aggregates cannot be created inside a transaction, so the
	// daily view is issued statement by statement after the table batch.
	view := m.DailyViewName()
	drop, create := dailyViewDDL(table, view)
	if _, err := s.pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("timescale: drop daily view %s: %w", view, err)
	}
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("timescale: create daily view %s: %w", view, err)
	}
	return nil
}

// EnsureBarTable provisions a dollar-bar or time-bar table for a series.
func (s *Schema) EnsureBarTable(ctx context.Context, series domain.BarSeries, force bool) error {
	if err := series.Validate(); err != nil {
		return err
	}

	table := series.TableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return err
	}
	if exists && !force {
		return nil
	}

	if _, err := s.pool.Exec(ctx, barTableDDL(table, series.Kind)); err != nil {
		return fmt.Errorf("timescale: create %s table %s: %w", series.Kind, table, err)
	}
	return nil
}

// tradeTableDDL builds the provisioning batch for a trade table: drop,
// create with the trade column set, the two read-path indexes, and the
// hypertable registration on datetime.
func tradeTableDDL(table string) string {
	q := quoteIdent(table)
	return `DROP TABLE IF EXISTS ` + q + ` CASCADE;
CREATE TABLE ` + q + ` (
	datetime TIMESTAMP WITH TIME ZONE NOT NULL,
	id TEXT,
	side enum_side NOT NULL,
	liquidation BOOL NOT NULL,
	price NUMERIC NOT NULL,
	volume NUMERIC NOT NULL,
	dollar_volume NUMERIC NOT NULL,
	dollar_cumsum NUMERIC NOT NULL,
	dollar_buy_cumsum NUMERIC NOT NULL,
	dollar_sell_cumsum NUMERIC NOT NULL,
	UNIQUE (datetime, id)
);
CREATE INDEX ON ` + q + ` (datetime DESC);
CREATE INDEX ON ` + q + ` (datetime DESC, dollar_cumsum);
SELECT create_hypertable('` + table + `', 'datetime');`
}

// barTableDDL builds the provisioning batch for a bar table. The two bar
// families share the column set and differ only in the uniqueness rule:
// dollar-bars are unique on (datetime, id), time-bars hold exactly one bar
// per interval and are unique on datetime alone.
func barTableDDL(table string, kind domain.BarKind) string {
	unique := "UNIQUE (datetime, id)"
	if kind == domain.TimeBar {
		unique = "UNIQUE (datetime)"
	}

	q := quoteIdent(table)
	return `DROP TABLE IF EXISTS ` + q + ` CASCADE;
CREATE TABLE ` + q + ` (
	datetime TIMESTAMP WITH TIME ZONE NOT NULL,
	datetime_from TIMESTAMP WITH TIME ZONE NOT NULL,
	id TEXT,
	id_from TEXT,
	open NUMERIC NOT NULL,
	high NUMERIC NOT NULL,
	low NUMERIC NOT NULL,
	close NUMERIC NOT NULL,
	volume NUMERIC NOT NULL,
	dollar_volume NUMERIC NOT NULL,
	dollar_buy_volume NUMERIC NOT NULL,
	dollar_sell_volume NUMERIC NOT NULL,
	dollar_liquidation_volume NUMERIC NOT NULL,
	dollar_liquidation_buy_volume NUMERIC NOT NULL,
	dollar_liquidation_sell_volume NUMERIC NOT NULL,
	dollar_cumsum NUMERIC NOT NULL,
	dollar_buy_cumsum NUMERIC NOT NULL,
	dollar_sell_cumsum NUMERIC NOT NULL,
	` + unique + `
);
CREATE INDEX ON ` + q + ` (datetime DESC);
CREATE INDEX ON ` + q + ` (datetime DESC, dollar_cumsum);
SELECT create_hypertable('` + table + `', 'datetime');`
}

// dailyViewDDL builds the drop and create statements for the continuous
// aggregate that rolls a trade table up to per-day maxima of the cumulative
// sums plus the day's closing price. The view is declared WITH NO DATA;
// refresh scheduling is left to the database operator.
func dailyViewDDL(table, view string) (drop, create string) {
	drop = `DROP MATERIALIZED VIEW IF EXISTS ` + quoteIdent(view) + ` CASCADE`
	create = `CREATE MATERIALIZED VIEW ` + quoteIdent(view) + ` WITH (timescaledb.continuous) AS
SELECT
	time_bucket(INTERVAL '1 day', datetime) AS time,
	MAX(dollar_cumsum) AS dollar_cumsum,
	MAX(dollar_buy_cumsum) AS dollar_buy_cumsum,
	MAX(dollar_sell_cumsum) AS dollar_sell_cumsum,
	last(price, datetime) AS close
FROM ` + quoteIdent(table) + `
GROUP BY 1
WITH NO DATA`
	return drop, create
}
