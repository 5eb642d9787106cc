package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSTORE_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSTORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject credentials at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Timescale.DSN, "MARKETSTORE_TIMESCALE_DSN")
	setStr(&cfg.Timescale.Host, "MARKETSTORE_TIMESCALE_HOST")
	setInt(&cfg.Timescale.Port, "MARKETSTORE_TIMESCALE_PORT")
	setStr(&cfg.Timescale.Database, "MARKETSTORE_TIMESCALE_DATABASE")
	setStr(&cfg.Timescale.User, "MARKETSTORE_TIMESCALE_USER")
	setStr(&cfg.Timescale.Password, "MARKETSTORE_TIMESCALE_PASSWORD")
	setStr(&cfg.Timescale.SSLMode, "MARKETSTORE_TIMESCALE_SSLMODE")
	setInt(&cfg.Timescale.PoolMaxConns, "MARKETSTORE_TIMESCALE_POOL_MAX_CONNS")
	setInt(&cfg.Timescale.PoolMinConns, "MARKETSTORE_TIMESCALE_POOL_MIN_CONNS")

	setStr(&cfg.Redis.Addr, "MARKETSTORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSTORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSTORE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETSTORE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETSTORE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETSTORE_REDIS_TLS_ENABLED")

	setStr(&cfg.S3.Endpoint, "MARKETSTORE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETSTORE_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETSTORE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETSTORE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETSTORE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MARKETSTORE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MARKETSTORE_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Mode, "MARKETSTORE_MODE")
	setStr(&cfg.LogLevel, "MARKETSTORE_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
