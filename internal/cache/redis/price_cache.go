package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/takahiro47/marketstore/internal/domain"
	"github.com/takahiro47/marketstore/internal/numeric"
)

// PriceCache implements domain.PriceCache using Redis hashes. Each market's
// latest trade snapshot is stored at "latest:{exchange}:{symbol}" with
// fields "price", "dollar_cumsum" and "ts" (Unix nanoseconds). Price and
// cumsum are kept in decimal text form; the cache must not lose the
// precision the store preserves.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

func latestKey(m domain.Market) string {
	return "latest:" + strings.ToLower(m.Exchange) + ":" + strings.ToLower(m.Symbol)
}

// SetLatest stores the latest price, cumulative dollar volume and timestamp
// for a market.
func (pc *PriceCache) SetLatest(ctx context.Context, m domain.Market, price, cumsum decimal.Decimal, ts time.Time) error {
	key := latestKey(m)
	fields := map[string]interface{}{
		"price":         numeric.Encode(price),
		"dollar_cumsum": numeric.Encode(cumsum),
		"ts":            strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set latest %s: %w", key, err)
	}
	return nil
}

// GetLatest retrieves the latest trade snapshot for a market. It returns
// domain.ErrNotFound when the key does not exist.
func (pc *PriceCache) GetLatest(ctx context.Context, m domain.Market) (domain.LatestPrice, error) {
	key := latestKey(m)
	vals, err := pc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return domain.LatestPrice{}, fmt.Errorf("redis: get latest %s: %w", key, err)
	}
	if len(vals) == 0 {
		return domain.LatestPrice{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return domain.LatestPrice{}, domain.ErrNotFound
	}
	price, err := numeric.Decode(priceStr)
	if err != nil {
		return domain.LatestPrice{}, fmt.Errorf("redis: latest %s: %w", key, err)
	}

	cumsumStr, ok := vals["dollar_cumsum"]
	if !ok {
		return domain.LatestPrice{}, domain.ErrNotFound
	}
	cumsum, err := numeric.Decode(cumsumStr)
	if err != nil {
		return domain.LatestPrice{}, fmt.Errorf("redis: latest %s: %w", key, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return domain.LatestPrice{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return domain.LatestPrice{}, fmt.Errorf("redis: parse ts %s: %w", key, err)
	}

	return domain.LatestPrice{
		Price:        price,
		DollarCumsum: cumsum,
		Datetime:     time.Unix(0, tsNano).UTC(),
	}, nil
}
