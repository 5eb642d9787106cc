// Package service composes the schema manager, stores and caches into the
// operations the application modes call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/takahiro47/marketstore/internal/domain"
)

// ProvisionTarget names one market and the bar intervals to provision
// alongside its trade table.
type ProvisionTarget struct {
	Market          domain.Market
	DollarIntervals []string
	TimeIntervals   []string
}

// MarketData is the synchronous facade over the market-data store. It holds
// immutable handles only and is safe for concurrent callers; consistency of
// concurrent append vs. scan is delegated to the database's snapshot
// isolation.
type MarketData struct {
	schema domain.SchemaManager
	trades domain.TradeStore
	bars   domain.BarStore
	cache  domain.PriceCache // optional, nil disables caching
	logger *slog.Logger
}

// NewMarketData creates a MarketData service. cache may be nil.
func NewMarketData(
	schema domain.SchemaManager,
	trades domain.TradeStore,
	bars domain.BarStore,
	cache domain.PriceCache,
	logger *slog.Logger,
) *MarketData {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketData{
		schema: schema,
		trades: trades,
		bars:   bars,
		cache:  cache,
		logger: logger.With(slog.String("component", "marketdata")),
	}
}

// Provision ensures the trade table and every configured bar table for each
// target, one goroutine per target. With force=true existing tables are
// dropped and recreated.
func (s *MarketData) Provision(ctx context.Context, targets []ProvisionTarget, force bool) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			return s.provisionTarget(ctx, t, force)
		})
	}
	return g.Wait()
}

func (s *MarketData) provisionTarget(ctx context.Context, t ProvisionTarget, force bool) error {
	if err := s.schema.EnsureTradeTable(ctx, t.Market, force); err != nil {
		return fmt.Errorf("marketdata: provision %s: %w", t.Market.TradeTableName(), err)
	}

	for _, interval := range t.DollarIntervals {
		series := domain.BarSeries{Market: t.Market, Kind: domain.DollarBar, Interval: interval}
		if err := s.schema.EnsureBarTable(ctx, series, force); err != nil {
			return fmt.Errorf("marketdata: provision %s: %w", series.TableName(), err)
		}
	}
	for _, interval := range t.TimeIntervals {
		series := domain.BarSeries{Market: t.Market, Kind: domain.TimeBar, Interval: interval}
		if err := s.schema.EnsureBarTable(ctx, series, force); err != nil {
			return fmt.Errorf("marketdata: provision %s: %w", series.TableName(), err)
		}
	}

	s.logger.InfoContext(ctx, "provisioned market",
		slog.String("exchange", t.Market.Exchange),
		slog.String("symbol", t.Market.Symbol),
		slog.Int("dollar_intervals", len(t.DollarIntervals)),
		slog.Int("time_intervals", len(t.TimeIntervals)),
	)
	return nil
}

// IngestTrades appends a batch of fully derived trades and writes the last
// row through to the latest-price cache. An empty batch is a no-op.
func (s *MarketData) IngestTrades(ctx context.Context, m domain.Market, trades []domain.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	batchID := uuid.NewString()
	written, err := s.trades.Append(ctx, m, trades, domain.AppendOnly)
	if err != nil {
		return written, fmt.Errorf("marketdata: ingest trades: %w", err)
	}

	last := trades[len(trades)-1]
	if s.cache != nil {
		if cacheErr := s.cache.SetLatest(ctx, m, last.Price, last.DollarCumsum, last.Datetime); cacheErr != nil {
			s.logger.WarnContext(ctx, "latest-price cache update failed",
				slog.String("batch_id", batchID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "ingested trades",
		slog.String("batch_id", batchID),
		slog.String("exchange", m.Exchange),
		slog.String("symbol", m.Symbol),
		slog.Int("count", len(trades)),
		slog.Int64("written", written),
	)
	return written, nil
}

// IngestBars appends a batch of fully derived bars. An empty batch is a
// no-op.
func (s *MarketData) IngestBars(ctx context.Context, series domain.BarSeries, bars []domain.Bar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	batchID := uuid.NewString()
	written, err := s.bars.Append(ctx, series, bars, domain.AppendOnly)
	if err != nil {
		return written, fmt.Errorf("marketdata: ingest bars: %w", err)
	}

	s.logger.InfoContext(ctx, "ingested bars",
		slog.String("batch_id", batchID),
		slog.String("table", series.TableName()),
		slog.Int("count", len(bars)),
		slog.Int64("written", written),
	)
	return written, nil
}

// LatestTrade returns the newest trade of a market, or nil when the table
// is absent or empty.
func (s *MarketData) LatestTrade(ctx context.Context, m domain.Market) (*domain.Trade, error) {
	t, err := s.trades.Latest(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("marketdata: latest trade: %w", err)
	}
	return t, nil
}

// FirstTrade returns the oldest trade of a market, or nil when the table is
// absent or empty.
func (s *MarketData) FirstTrade(ctx context.Context, m domain.Market) (*domain.Trade, error) {
	t, err := s.trades.First(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("marketdata: first trade: %w", err)
	}
	return t, nil
}

// LatestPrice returns the most recent price snapshot, preferring the cache
// and falling back to the store. It returns domain.ErrNotFound when the
// market has no trades at all.
func (s *MarketData) LatestPrice(ctx context.Context, m domain.Market) (domain.LatestPrice, error) {
	if s.cache != nil {
		lp, err := s.cache.GetLatest(ctx, m)
		if err == nil {
			return lp, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "latest-price cache lookup failed",
				slog.String("error", err.Error()),
			)
		}
	}

	t, err := s.trades.Latest(ctx, m)
	if err != nil {
		return domain.LatestPrice{}, fmt.Errorf("marketdata: latest price: %w", err)
	}
	if t == nil {
		return domain.LatestPrice{}, domain.ErrNotFound
	}
	return domain.LatestPrice{
		Price:        t.Price,
		DollarCumsum: t.DollarCumsum,
		Datetime:     t.Datetime,
	}, nil
}

// LatestBar returns the newest bar of a series, or nil when the table is
// absent or empty.
func (s *MarketData) LatestBar(ctx context.Context, series domain.BarSeries) (*domain.Bar, error) {
	b, err := s.bars.Latest(ctx, series)
	if err != nil {
		return nil, fmt.Errorf("marketdata: latest bar: %w", err)
	}
	return b, nil
}

// LoadBars returns the published projection of all bars with datetime in
// [from, to), ordered by dollar cumsum ascending.
func (s *MarketData) LoadBars(ctx context.Context, series domain.BarSeries, from, to time.Time) ([]domain.BarPoint, error) {
	points, err := s.bars.LoadRange(ctx, series, from, to)
	if err != nil {
		return nil, fmt.Errorf("marketdata: load bars: %w", err)
	}
	return points, nil
}
