package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const baseConfig = `
mode = "provision"

[timescale]
host = "localhost"
database = "market"
user = "postgres"
password = "secret"

[[markets]]
exchange = "ftx"
symbol = "BTC-PERP"
dollar_intervals = ["10000000"]
time_intervals = ["1h"]
`

func TestLoadMergesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timescale.Host != "localhost" {
		t.Errorf("host = %q", cfg.Timescale.Host)
	}
	// Unset fields keep their defaults.
	if cfg.Timescale.Port != 5432 {
		t.Errorf("port = %d, want default 5432", cfg.Timescale.Port)
	}
	if cfg.Timescale.SSLMode != "disable" {
		t.Errorf("ssl_mode = %q, want default disable", cfg.Timescale.SSLMode)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want default info", cfg.LogLevel)
	}
	if len(cfg.Markets) != 1 || cfg.Markets[0].Symbol != "BTC-PERP" {
		t.Errorf("markets = %+v", cfg.Markets)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MARKETSTORE_TIMESCALE_HOST", "db.internal")
	t.Setenv("MARKETSTORE_TIMESCALE_PORT", "6432")
	t.Setenv("MARKETSTORE_REDIS_ADDR", "cache:6379")
	t.Setenv("MARKETSTORE_MODE", "status")

	cfg, err := Load(writeConfig(t, baseConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timescale.Host != "db.internal" {
		t.Errorf("host = %q, want env override", cfg.Timescale.Host)
	}
	if cfg.Timescale.Port != 6432 {
		t.Errorf("port = %d, want 6432", cfg.Timescale.Port)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
	if cfg.Mode != "status" {
		t.Errorf("mode = %q, want status", cfg.Mode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.Timescale.Host = "localhost"
		cfg.Timescale.Database = "market"
		cfg.Timescale.User = "postgres"
		cfg.Timescale.Password = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid provision", mutate: func(*Config) {}},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "replicate" },
			wantErr: true,
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.Timescale.Host = "" },
			wantErr: true,
		},
		{
			name: "dsn replaces individual fields",
			mutate: func(c *Config) {
				c.Timescale = TimescaleConfig{DSN: "postgres://u:p@h:5432/db"}
			},
		},
		{
			name: "market missing symbol",
			mutate: func(c *Config) {
				c.Markets = []MarketConfig{{Exchange: "ftx"}}
			},
			wantErr: true,
		},
		{
			name: "export mode requires bucket",
			mutate: func(c *Config) {
				c.Mode = "export"
				c.Export = ExportConfig{
					Exchange: "ftx", Symbol: "BTC-PERP", Kind: "dollarbar", Interval: "10000000",
					From: "2024-03-01T00:00:00Z", To: "2024-03-02T00:00:00Z",
				}
			},
			wantErr: true,
		},
		{
			name: "export mode complete",
			mutate: func(c *Config) {
				c.Mode = "export"
				c.S3.Bucket = "bars"
				c.Export = ExportConfig{
					Exchange: "ftx", Symbol: "BTC-PERP", Kind: "dollarbar", Interval: "10000000",
					From: "2024-03-01T00:00:00Z", To: "2024-03-02T00:00:00Z",
				}
			},
		},
		{
			name: "export kind invalid",
			mutate: func(c *Config) {
				c.Mode = "export"
				c.S3.Bucket = "bars"
				c.Export = ExportConfig{
					Exchange: "ftx", Symbol: "BTC-PERP", Kind: "volumebar", Interval: "10000000",
					From: "2024-03-01T00:00:00Z", To: "2024-03-02T00:00:00Z",
				}
			},
			wantErr: true,
		},
		{
			name: "export window empty",
			mutate: func(c *Config) {
				c.Mode = "export"
				c.S3.Bucket = "bars"
				c.Export = ExportConfig{
					Exchange: "ftx", Symbol: "BTC-PERP", Kind: "timebar", Interval: "1h",
					From: "2024-03-02T00:00:00Z", To: "2024-03-01T00:00:00Z",
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
