// Package config loads queuelaw runtime settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexshd/queuelaw"
)

// Config is the full runtime configuration of the queuelaw server and CLI.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Ledger LedgerConfig `yaml:"ledger"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxInFlight  int           `yaml:"max_in_flight"` // 0 disables load shedding
	ShedHold     time.Duration `yaml:"shed_hold"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
	File   string `yaml:"file"`   // Rotating log file, "" or "-" for none
}

// EngineConfig configures result presentation.
type EngineConfig struct {
	Precision  int `yaml:"precision"`   // Fractional digits in tables
	MaxClasses int `yaml:"max_classes"` // Upper bound on classes per request
}

// LedgerConfig selects where evaluated requests are recorded.
type LedgerConfig struct {
	Driver  string `yaml:"driver"` // sqlite|postgres|none
	Path    string `yaml:"path"`   // SQLite file
	DSN     string `yaml:"dsn"`    // PostgreSQL connection string
	MaxOpen int    `yaml:"max_open"`
	MaxIdle int    `yaml:"max_idle"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxInFlight:  256,
			ShedHold:     5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			Precision:  queuelaw.DefaultPrecision,
			MaxClasses: 64,
		},
		Ledger: LedgerConfig{
			Driver:  "sqlite",
			Path:    "data/queuelaw.db",
			MaxOpen: 10,
			MaxIdle: 5,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies QUEUELAW_*
// environment overrides and validates the result. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Addr = firstNonEmpty(os.Getenv("QUEUELAW_ADDR"), c.Server.Addr)
	c.Log.Level = firstNonEmpty(os.Getenv("QUEUELAW_LOG_LEVEL"), c.Log.Level)
	c.Log.Format = firstNonEmpty(os.Getenv("QUEUELAW_LOG_FORMAT"), c.Log.Format)
	c.Log.File = firstNonEmpty(os.Getenv("QUEUELAW_LOG_FILE"), c.Log.File)
	c.Ledger.Driver = firstNonEmpty(os.Getenv("QUEUELAW_LEDGER_DRIVER"), c.Ledger.Driver)
	c.Ledger.Path = firstNonEmpty(os.Getenv("QUEUELAW_LEDGER_PATH"), c.Ledger.Path)
	c.Ledger.DSN = firstNonEmpty(os.Getenv("QUEUELAW_LEDGER_DSN"), c.Ledger.DSN)

	if v := strings.TrimSpace(os.Getenv("QUEUELAW_PRECISION")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUEUELAW_PRECISION: %w", err)
		}
		c.Engine.Precision = p
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxInFlight < 0 {
		return fmt.Errorf("server.max_in_flight: must be ≥ 0, got %d", c.Server.MaxInFlight)
	}
	if c.Server.ShedHold < 0 {
		return fmt.Errorf("server.shed_hold: must be ≥ 0, got %s", c.Server.ShedHold)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	if c.Engine.Precision < 1 || c.Engine.Precision > queuelaw.MaxPrecision {
		return fmt.Errorf("engine.precision: must be within 1..%d, got %d", queuelaw.MaxPrecision, c.Engine.Precision)
	}
	if c.Engine.MaxClasses < 1 {
		return fmt.Errorf("engine.max_classes: must be ≥ 1, got %d", c.Engine.MaxClasses)
	}
	switch c.Ledger.Driver {
	case "none":
	case "sqlite":
		if strings.TrimSpace(c.Ledger.Path) == "" {
			return errors.New("ledger.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Ledger.DSN) == "" {
			return errors.New("ledger.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("ledger.driver: must be sqlite, postgres or none, got %q", c.Ledger.Driver)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
