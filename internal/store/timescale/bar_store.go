package timescale

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/takahiro47/marketstore/internal/domain"
	"github.com/takahiro47/marketstore/internal/numeric"
)

// BarStore implements domain.BarStore. One store serves both bar families;
// the series carries the kind and the uniqueness difference lives entirely
// in the schema.
type BarStore struct {
	pool *pgxpool.Pool
}

// NewBarStore creates a BarStore backed by the given connection pool.
func NewBarStore(pool *pgxpool.Pool) *BarStore {
	return &BarStore{pool: pool}
}

const barSelectCols = `datetime, datetime_from, id, id_from, open::text, high::text, low::text,
	close::text, volume::text, dollar_volume::text, dollar_buy_volume::text, dollar_sell_volume::text,
	dollar_liquidation_volume::text, dollar_liquidation_buy_volume::text, dollar_liquidation_sell_volume::text,
	dollar_cumsum::text, dollar_buy_cumsum::text, dollar_sell_cumsum::text`

const barInsertCols = `datetime, datetime_from, id, id_from, open, high, low, close, volume,
	dollar_volume, dollar_buy_volume, dollar_sell_volume, dollar_liquidation_volume,
	dollar_liquidation_buy_volume, dollar_liquidation_sell_volume, dollar_cumsum,
	dollar_buy_cumsum, dollar_sell_cumsum`

// barPointCols is the published range-load projection, in its fixed order.
const barPointCols = `datetime, open::text, high::text, low::text, close::text,
	dollar_volume::text, dollar_buy_volume::text, dollar_sell_volume::text,
	dollar_liquidation_buy_volume::text, dollar_liquidation_sell_volume::text,
	dollar_cumsum::text, dollar_buy_cumsum::text, dollar_sell_cumsum::text`

func barInsertArgs(b domain.Bar) []any {
	return []any{
		b.Datetime,
		b.DatetimeFrom,
		nullIfEmpty(b.ID),
		nullIfEmpty(b.IDFrom),
		numeric.Encode(b.Open),
		numeric.Encode(b.High),
		numeric.Encode(b.Low),
		numeric.Encode(b.Close),
		numeric.Encode(b.Volume),
		numeric.Encode(b.DollarVolume),
		numeric.Encode(b.DollarBuyVolume),
		numeric.Encode(b.DollarSellVolume),
		numeric.Encode(b.DollarLiquidationVolume),
		numeric.Encode(b.DollarLiquidationBuyVolume),
		numeric.Encode(b.DollarLiquidationSellVolume),
		numeric.Encode(b.DollarCumsum),
		numeric.Encode(b.DollarBuyCumsum),
		numeric.Encode(b.DollarSellCumsum),
	}
}

func scanBarRows(rows pgx.Rows) ([]domain.Bar, error) {
	var bars []domain.Bar
	for rows.Next() {
		var (
			b      domain.Bar
			id     *string
			idFrom *string
			nums   [14]string
		)
		if err := rows.Scan(
			&b.Datetime, &b.DatetimeFrom, &id, &idFrom,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5], &nums[6],
			&nums[7], &nums[8], &nums[9], &nums[10], &nums[11], &nums[12], &nums[13],
		); err != nil {
			return nil, err
		}
		b.ID = orEmpty(id)
		b.IDFrom = orEmpty(idFrom)
		for i, dst := range []*decimal.Decimal{
			&b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.DollarVolume, &b.DollarBuyVolume, &b.DollarSellVolume,
			&b.DollarLiquidationVolume, &b.DollarLiquidationBuyVolume, &b.DollarLiquidationSellVolume,
			&b.DollarCumsum, &b.DollarBuyCumsum, &b.DollarSellCumsum,
		} {
			d, err := numeric.Decode(nums[i])
			if err != nil {
				return nil, err
			}
			*dst = d
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func scanBarPointRows(rows pgx.Rows) ([]domain.BarPoint, error) {
	var points []domain.BarPoint
	for rows.Next() {
		var (
			p    domain.BarPoint
			nums [12]string
		)
		if err := rows.Scan(
			&p.Datetime,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5],
			&nums[6], &nums[7], &nums[8], &nums[9], &nums[10], &nums[11],
		); err != nil {
			return nil, err
		}
		for i, dst := range []*decimal.Decimal{
			&p.Open, &p.High, &p.Low, &p.Close,
			&p.DollarVolume, &p.DollarBuyVolume, &p.DollarSellVolume,
			&p.DollarLiquidationBuyVolume, &p.DollarLiquidationSellVolume,
			&p.DollarCumsum, &p.DollarBuyCumsum, &p.DollarSellCumsum,
		} {
			d, err := numeric.Decode(nums[i])
			if err != nil {
				return nil, err
			}
			*dst = d
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Append bulk-inserts fully derived bars with the same policy semantics as
// trade appends: no upsert, duplicate keys fail hard.
func (s *BarStore) Append(ctx context.Context, series domain.BarSeries, bars []domain.Bar, policy domain.AppendPolicy) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	if err := series.Validate(); err != nil {
		return 0, err
	}

	table := series.TableName()
	if policy == domain.FailIfExists {
		exists, err := tableExists(ctx, s.pool, table)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, fmt.Errorf("timescale: append bars to %s: %w", table, domain.ErrTableExists)
		}
	}

	query := `INSERT INTO ` + quoteIdent(table) + ` (` + barInsertCols + `) VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, barInsertArgs(b)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var written int64
	for i := range bars {
		ct, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("timescale: append bar %d/%d to %s: %w", i+1, len(bars), table, err)
		}
		written += ct.RowsAffected()
	}
	return written, nil
}

// Exists reports whether the bar table for the series has been provisioned.
func (s *BarStore) Exists(ctx context.Context, series domain.BarSeries) (bool, error) {
	if err := series.Validate(); err != nil {
		return false, err
	}
	return tableExists(ctx, s.pool, series.TableName())
}

// Latest returns the bar with the maximum dollar cumsum among the most
// recent rows by datetime, or nil when the table is absent or empty.
func (s *BarStore) Latest(ctx context.Context, series domain.BarSeries) (*domain.Bar, error) {
	return s.windowOne(ctx, series, latestQuery, "latest")
}

// First returns the bar with the minimum dollar cumsum among the earliest
// rows by datetime, or nil when the table is absent or empty.
func (s *BarStore) First(ctx context.Context, series domain.BarSeries) (*domain.Bar, error) {
	return s.windowOne(ctx, series, firstQuery, "first")
}

func (s *BarStore) windowOne(ctx context.Context, series domain.BarSeries, build func(table, cols string) string, op string) (*domain.Bar, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	table := series.TableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, build(table, barSelectCols))
	if err != nil {
		return nil, fmt.Errorf("timescale: %s bar of %s: %w", op, table, err)
	}
	defer rows.Close()

	bars, err := scanBarRows(rows)
	if err != nil {
		return nil, fmt.Errorf("timescale: scan %s bar of %s: %w", op, table, err)
	}
	if len(bars) == 0 {
		return nil, nil
	}
	return &bars[0], nil
}

// LoadRange returns the published projection of all bars with datetime in
// [from, to), ordered by dollar cumsum ascending. An absent table or empty
// window yields an empty slice.
func (s *BarStore) LoadRange(ctx context.Context, series domain.BarSeries, from, to time.Time) ([]domain.BarPoint, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	table := series.TableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, rangeQuery(table, barPointCols), from, to)
	if err != nil {
		return nil, fmt.Errorf("timescale: load bars of %s: %w", table, err)
	}
	defer rows.Close()

	points, err := scanBarPointRows(rows)
	if err != nil {
		return nil, fmt.Errorf("timescale: scan bars of %s: %w", table, err)
	}
	return points, nil
}
