// Package config loads physiotrack configuration from a TOML file, an
// optional .env file and PHYSIOTRACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Engine   EngineConfig   `toml:"engine"`
	Log      LogConfig      `toml:"log"`
	Redis    RedisConfig    `toml:"redis"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// ServerConfig controls the HTTP listener and static web files.
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"`
}

// DatabaseConfig locates the SQLite exercise catalog.
type DatabaseConfig struct {
	Path string `toml:"path"`
	// SeedDefaults inserts the built-in exercises into an empty database.
	SeedDefaults bool `toml:"seed_defaults"`
}

// EngineConfig tunes the rep-counting engine.
type EngineConfig struct {
	InactivityTimeout time.Duration `toml:"inactivity_timeout"`
}

// LogConfig selects log level, format and outputs.
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Stdout bool   `toml:"stdout"`
	JSON   bool   `toml:"json"`
}

// RedisConfig enables cross-instance catalog notifications when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// MetricsConfig toggles the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	dbPath := "physiotrack.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".physiotrack", "physiotrack.db")
	}

	return &Config{
		Server: ServerConfig{
			Host: "",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Path:         dbPath,
			SeedDefaults: true,
		},
		Engine: EngineConfig{
			InactivityTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Stdout: true,
		},
		Redis: RedisConfig{
			Channel: "physiotrack:catalog.changed",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads config from a TOML file, then applies environment variable overrides.
// A missing file yields the defaults. Variables from a .env file in the working
// directory are loaded first without overriding the real environment.
// Env vars use the prefix PHYSIOTRACK_:
//
//	PHYSIOTRACK_SERVER_HOST, PHYSIOTRACK_SERVER_PORT, PHYSIOTRACK_STATIC_DIR,
//	PHYSIOTRACK_DB_PATH, PHYSIOTRACK_INACTIVITY_TIMEOUT,
//	PHYSIOTRACK_LOG_LEVEL, PHYSIOTRACK_LOG_FILE, PHYSIOTRACK_LOG_JSON,
//	PHYSIOTRACK_REDIS_ADDR, PHYSIOTRACK_REDIS_PASSWORD, PHYSIOTRACK_REDIS_DB,
//	PHYSIOTRACK_METRICS_ENABLED
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PHYSIOTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PHYSIOTRACK_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PHYSIOTRACK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("PHYSIOTRACK_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("PHYSIOTRACK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PHYSIOTRACK_INACTIVITY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PHYSIOTRACK_INACTIVITY_TIMEOUT: %w", err)
		}
		cfg.Engine.InactivityTimeout = d
	}
	if v := os.Getenv("PHYSIOTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PHYSIOTRACK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PHYSIOTRACK_LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PHYSIOTRACK_LOG_JSON: %w", err)
		}
		cfg.Log.JSON = b
	}
	if v := os.Getenv("PHYSIOTRACK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PHYSIOTRACK_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PHYSIOTRACK_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PHYSIOTRACK_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = db
	}
	if v := os.Getenv("PHYSIOTRACK_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PHYSIOTRACK_METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = b
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Engine.InactivityTimeout <= 0 {
		return fmt.Errorf("engine.inactivity_timeout must be positive")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}
	return nil
}
