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

// TradeStore implements domain.TradeStore on per-market trade hypertables.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// tradeSelectCols casts every NUMERIC column to text so decimal values reach
// the codec without a binary floating-point detour.
const tradeSelectCols = `datetime, id, side, liquidation, price::text, volume::text,
	dollar_volume::text, dollar_cumsum::text, dollar_buy_cumsum::text, dollar_sell_cumsum::text`

const tradeInsertCols = `datetime, id, side, liquidation, price, volume,
	dollar_volume, dollar_cumsum, dollar_buy_cumsum, dollar_sell_cumsum`

// tradeInsertArgs encodes one trade row for insertion. Decimals go out as
// canonical text and an absent exchange id becomes SQL NULL so the
// (datetime, id) uniqueness treats id-less rows per the NULL rules.
func tradeInsertArgs(t domain.Trade) []any {
	return []any{
		t.Datetime,
		nullIfEmpty(t.ID),
		string(t.Side),
		t.Liquidation,
		numeric.Encode(t.Price),
		numeric.Encode(t.Volume),
		numeric.Encode(t.DollarVolume),
		numeric.Encode(t.DollarCumsum),
		numeric.Encode(t.DollarBuyCumsum),
		numeric.Encode(t.DollarSellCumsum),
	}
}

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var (
			t    domain.Trade
			id   *string
			side string
			nums [6]string
		)
		if err := rows.Scan(
			&t.Datetime, &id, &side, &t.Liquidation,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5],
		); err != nil {
			return nil, err
		}
		t.ID = orEmpty(id)
		t.Side = domain.Side(side)
		for i, dst := range []*decimal.Decimal{
			&t.Price, &t.Volume, &t.DollarVolume,
			&t.DollarCumsum, &t.DollarBuyCumsum, &t.DollarSellCumsum,
		} {
			d, err := numeric.Decode(nums[i])
			if err != nil {
				return nil, err
			}
			*dst = d
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Append bulk-inserts fully derived trade rows. Under FailIfExists the call
// refuses an already-provisioned table; under AppendOnly a duplicate
// (datetime, id) surfaces the unique-violation error unmodified. An empty
// batch is a no-op.
func (s *TradeStore) Append(ctx context.Context, m domain.Market, trades []domain.Trade, policy domain.AppendPolicy) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}
	if err := m.Validate(); err != nil {
		return 0, err
	}

	table := m.TradeTableName()
	if policy == domain.FailIfExists {
		exists, err := tableExists(ctx, s.pool, table)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, fmt.Errorf("timescale: append trades to %s: %w", table, domain.ErrTableExists)
		}
	}

	query := `INSERT INTO ` + quoteIdent(table) + ` (` + tradeInsertCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query, tradeInsertArgs(t)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var written int64
	for i := range trades {
		ct, err := br.Exec()
		if err != nil {
			return written, fmt.Errorf("timescale: append trade %d/%d to %s: %w", i+1, len(trades), table, err)
		}
		written += ct.RowsAffected()
	}
	return written, nil
}

// Exists reports whether the trade table for the market has been
// provisioned.
func (s *TradeStore) Exists(ctx context.Context, m domain.Market) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, err
	}
	return tableExists(ctx, s.pool, m.TradeTableName())
}

// Latest returns the trade with the maximum dollar cumsum among the most
// recent rows by datetime, or nil when the table is absent or empty.
func (s *TradeStore) Latest(ctx context.Context, m domain.Market) (*domain.Trade, error) {
	return s.windowOne(ctx, m, latestQuery, "latest")
}

// First returns the trade with the minimum dollar cumsum among the earliest
// rows by datetime, or nil when the table is absent or empty.
func (s *TradeStore) First(ctx context.Context, m domain.Market) (*domain.Trade, error) {
	return s.windowOne(ctx, m, firstQuery, "first")
}

func (s *TradeStore) windowOne(ctx context.Context, m domain.Market, build func(table, cols string) string, op string) (*domain.Trade, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	table := m.TradeTableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, build(table, tradeSelectCols))
	if err != nil {
		return nil, fmt.Errorf("timescale: %s trade of %s: %w", op, table, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("timescale: scan %s trade of %s: %w", op, table, err)
	}
	if len(trades) == 0 {
		return nil, nil
	}
	return &trades[0], nil
}

// LoadRange returns all trades with datetime in [from, to), ordered by
// dollar cumsum ascending. An absent table or empty window yields an empty
// slice.
func (s *TradeStore) LoadRange(ctx context.Context, m domain.Market, from, to time.Time) ([]domain.Trade, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	table := m.TradeTableName()
	exists, err := tableExists(ctx, s.pool, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, rangeQuery(table, tradeSelectCols), from, to)
	if err != nil {
		return nil, fmt.Errorf("timescale: load trades of %s: %w", table, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("timescale: scan trades of %s: %w", table, err)
	}
	return trades, nil
}
