// Package config loads infrastructure configuration from the environment
// (optionally seeded from a .env file). Run options such as which files to
// read, the matching strategy and the output view live on the command line
// instead; the environment only configures logging and the optional match
// stores.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-driven configuration.
type Config struct {
	Logger   LoggerConfig   `envPrefix:"LOG_"`
	Memory   MemoryConfig   `envPrefix:"MEMORY_"`
	File     FileConfig     `envPrefix:"MATCH_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// MemoryConfig holds in-memory match store configuration.
type MemoryConfig struct {
	Enabled    bool `env:"ENABLED" envDefault:"true"`
	MaxMatches int  `env:"MAX_MATCHES" envDefault:"100000"`
}

// FileConfig holds the append-only match log configuration. Disabled unless
// a path is set.
type FileConfig struct {
	LogPath string `env:"LOG_PATH"`
}

// DatabaseConfig holds PostgreSQL match store configuration.
type DatabaseConfig struct {
	Enabled         bool          `env:"ENABLED" envDefault:"false"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"taxmatch"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	MaxConns        int           `env:"MAX_CONNECTIONS" envDefault:"4"`
	MinConns        int           `env:"MIN_CONNECTIONS" envDefault:"1"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
}

// RedisConfig holds Redis match store configuration.
type RedisConfig struct {
	Enabled      bool   `env:"ENABLED" envDefault:"false"`
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"6379"`
	Password     string `env:"PASSWORD"`
	DB           int    `env:"DB" envDefault:"0"`
	MaxRetries   int    `env:"MAX_RETRIES" envDefault:"3"`
	PoolSize     int    `env:"POOL_SIZE" envDefault:"4"`
	MinIdleConns int    `env:"MIN_IDLE_CONNS" envDefault:"1"`
	MaxMatches   int    `env:"MAX_MATCHES" envDefault:"50000"`
}

// Load loads configuration from a .env file (if one exists) and environment
// variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	if c.Memory.MaxMatches < 1 {
		return fmt.Errorf("MEMORY_MAX_MATCHES must be > 0")
	}
	if c.Redis.Enabled && c.Redis.MaxMatches < 1 {
		return fmt.Errorf("REDIS_MAX_MATCHES must be > 0")
	}
	return nil
}
