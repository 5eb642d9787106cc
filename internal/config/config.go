// Package config defines the top-level configuration for the market-data
// store and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by MARKETSTORE_* environment
// variables.
type Config struct {
	Timescale TimescaleConfig `toml:"timescale"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Markets   []MarketConfig  `toml:"markets"`
	Export    ExportConfig    `toml:"export"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// TimescaleConfig holds TimescaleDB connection parameters. Either DSN or
// the individual fields must be set.
type TimescaleConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters for the latest-price cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for bar exports.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// MarketConfig names one market and the bar intervals kept for it.
type MarketConfig struct {
	Exchange        string   `toml:"exchange"`
	Symbol          string   `toml:"symbol"`
	DollarIntervals []string `toml:"dollar_intervals"`
	TimeIntervals   []string `toml:"time_intervals"`
}

// ExportConfig selects the bar series and time window for the export mode.
// From and To are RFC 3339 timestamps bounding the half-open window
// [from, to).
type ExportConfig struct {
	Exchange string `toml:"exchange"`
	Symbol   string `toml:"symbol"`
	Kind     string `toml:"kind"` // "dollarbar" or "timebar"
	Interval string `toml:"interval"`
	From     string `toml:"from"`
	To       string `toml:"to"`
}

// Window parses the export bounds.
func (e ExportConfig) Window() (from, to time.Time, err error) {
	from, err = time.Parse(time.RFC3339, e.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: export from: %w", err)
	}
	to, err = time.Parse(time.RFC3339, e.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: export to: %w", err)
	}
	return from, to, nil
}

// Validate checks that the configuration is complete enough to run the
// selected mode. It fails fast, before any I/O.
func (c *Config) Validate() error {
	switch c.Mode {
	case "provision", "status", "export":
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}

	if strings.TrimSpace(c.Timescale.DSN) == "" {
		if c.Timescale.Host == "" {
			return fmt.Errorf("config: timescale host is required")
		}
		if c.Timescale.Database == "" {
			return fmt.Errorf("config: timescale database is required")
		}
		if c.Timescale.User == "" {
			return fmt.Errorf("config: timescale user is required")
		}
		if c.Timescale.Password == "" {
			return fmt.Errorf("config: timescale password is required")
		}
	}

	for i, m := range c.Markets {
		if m.Exchange == "" || m.Symbol == "" {
			return fmt.Errorf("config: markets[%d]: exchange and symbol are required", i)
		}
	}

	if c.Mode == "export" {
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: s3 bucket is required for export mode")
		}
		if c.Export.Exchange == "" || c.Export.Symbol == "" || c.Export.Interval == "" {
			return fmt.Errorf("config: export exchange, symbol and interval are required")
		}
		if c.Export.Kind != "dollarbar" && c.Export.Kind != "timebar" {
			return fmt.Errorf("config: export kind must be dollarbar or timebar, got %q", c.Export.Kind)
		}
		from, to, err := c.Export.Window()
		if err != nil {
			return err
		}
		if !from.Before(to) {
			return fmt.Errorf("config: export window is empty: from %s, to %s", c.Export.From, c.Export.To)
		}
	}

	return nil
}
