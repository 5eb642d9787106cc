package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// AppendPolicy selects how an append treats an already-provisioned table.
type AppendPolicy int

const (
	// AppendOnly inserts the batch into the existing table. Duplicate keys
	// under the table's uniqueness constraint are a hard failure, surfaced
	// unmodified; appends never upsert.
	AppendOnly AppendPolicy = iota

	// FailIfExists refuses to write when the target table already exists,
	// returning ErrTableExists.
	FailIfExists
)

// SchemaManager provisions the time-partitioned tables. Ensure calls are
// idempotent with force=false and destructive (drop and recreate) with
// force=true.
type SchemaManager interface {
	EnsureTradeTable(ctx context.Context, m Market, force bool) error
	EnsureBarTable(ctx context.Context, s BarSeries, force bool) error
}

// TradeStore persists and queries raw trade prints. Read operations against
// a never-provisioned table return nil records, false, or empty slices, not
// errors.
type TradeStore interface {
	Append(ctx context.Context, m Market, trades []Trade, policy AppendPolicy) (int64, error)
	Exists(ctx context.Context, m Market) (bool, error)
	Latest(ctx context.Context, m Market) (*Trade, error)
	First(ctx context.Context, m Market) (*Trade, error)
	LoadRange(ctx context.Context, m Market, from, to time.Time) ([]Trade, error)
}

// BarStore persists and queries aggregated bars, dollar-based and time-based
// alike. LoadRange returns the published BarPoint projection over the
// half-open window [from, to), ordered by dollar cumsum ascending.
type BarStore interface {
	Append(ctx context.Context, s BarSeries, bars []Bar, policy AppendPolicy) (int64, error)
	Exists(ctx context.Context, s BarSeries) (bool, error)
	Latest(ctx context.Context, s BarSeries) (*Bar, error)
	First(ctx context.Context, s BarSeries) (*Bar, error)
	LoadRange(ctx context.Context, s BarSeries, from, to time.Time) ([]BarPoint, error)
}

// PriceCache keeps the latest trade snapshot per market for cheap lookups.
// GetLatest returns ErrNotFound on a miss.
type PriceCache interface {
	SetLatest(ctx context.Context, m Market, price, cumsum decimal.Decimal, ts time.Time) error
	GetLatest(ctx context.Context, m Market) (LatestPrice, error)
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}
