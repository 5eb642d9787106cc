// Package timescale implements the domain store interfaces on TimescaleDB
// via pgx. Trades, dollar-bars and time-bars each live in per-market
// hypertables partitioned on datetime; all NUMERIC values cross the wire as
// text (see internal/numeric).
package timescale

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes this package inspects.
const (
	sqlstateDuplicateObject = "42710"
)

// ClientConfig holds connection parameters for the TimescaleDB client.
type ClientConfig struct {
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN builds a PostgreSQL connection string from the given config. An
// explicit DSN wins over the individual fields.
func DSN(cfg ClientConfig) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database, sslMode,
	)
}

// Client wraps a pgxpool.Pool shared by the schema manager and the stores.
// The pool is safe for concurrent use; Client carries no other state.
type Client struct {
	pool *pgxpool.Pool
}

// New creates a Client with a connection pool configured from cfg and
// verifies connectivity with a ping.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("timescale: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("timescale: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("timescale: ping: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close shuts down the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

// Init bootstraps database-level objects shared by every table: the
// enum_side type. It must be called once per database before any table is
// provisioned and is safe to call repeatedly.
//
// Two processes initializing an empty database may both pass the existence
// check and race on CREATE TYPE; the loser's duplicate_object failure is
// treated as success rather than propagated.
func (c *Client) Init(ctx context.Context) error {
	var exists bool
	err := c.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_type WHERE typname = 'enum_side')",
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("timescale: check enum_side: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := c.pool.Exec(ctx, "CREATE TYPE enum_side AS ENUM ('buy', 'sell')"); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == sqlstateDuplicateObject {
			return nil
		}
		return fmt.Errorf("timescale: create enum_side: %w", err)
	}
	return nil
}

// tableExists reports whether a table with the given name is present in the
// catalog. A missing table is never an error.
func tableExists(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1)",
		table,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("timescale: check table %s: %w", table, err)
	}
	return exists, nil
}
