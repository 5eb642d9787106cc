package config

// Defaults returns the built-in configuration baseline. TOML values and
// environment overrides are layered on top.
func Defaults() Config {
	return Config{
		Timescale: TimescaleConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 8,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			PoolSize:   8,
			MaxRetries: 3,
		},
		Mode:     "provision",
		LogLevel: "info",
	}
}
