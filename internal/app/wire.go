package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/takahiro47/marketstore/internal/blob/s3"
	"github.com/takahiro47/marketstore/internal/cache/redis"
	"github.com/takahiro47/marketstore/internal/config"
	"github.com/takahiro47/marketstore/internal/domain"
	"github.com/takahiro47/marketstore/internal/service"
	"github.com/takahiro47/marketstore/internal/store/timescale"
)

// Dependencies bundles the concrete implementations the application modes
// operate on. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	Trades domain.TradeStore
	Bars   domain.BarStore

	Service  *service.MarketData
	Exporter *s3blob.Exporter
}

// needsS3 returns true for modes that require object storage.
func needsS3(mode string) bool {
	return mode == "export"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- TimescaleDB ---
	tsClient, err := timescale.New(ctx, timescale.ClientConfig{
		DSN:      cfg.Timescale.DSN,
		Host:     cfg.Timescale.Host,
		Port:     cfg.Timescale.Port,
		Database: cfg.Timescale.Database,
		User:     cfg.Timescale.User,
		Password: cfg.Timescale.Password,
		SSLMode:  cfg.Timescale.SSLMode,
		MaxConns: cfg.Timescale.PoolMaxConns,
		MinConns: cfg.Timescale.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: timescale: %w", err)
	}
	closers = append(closers, tsClient.Close)

	// Database-level bootstrap (enum_side) precedes any table use.
	if err := tsClient.Init(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: timescale init: %w", err)
	}

	pool := tsClient.Pool()
	schema := timescale.NewSchema(pool)
	deps.Trades = timescale.NewTradeStore(pool)
	deps.Bars = timescale.NewBarStore(pool)

	// --- Redis (optional latest-price cache) ---
	var cache domain.PriceCache
	if cfg.Redis.Addr != "" {
		rdClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = rdClient.Close() })
		cache = redis.NewPriceCache(rdClient)
	}

	deps.Service = service.NewMarketData(schema, deps.Trades, deps.Bars, cache, logger)

	// --- S3 (only for modes that export) ---
	if needsS3(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Exporter = s3blob.NewExporter(s3blob.NewWriter(s3Client), deps.Bars, logger)
	}

	return deps, cleanup, nil
}
