// Package config loads YAML configuration with environment variable
// expansion and validates it before anything else runs.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Persistent cache backends.
const (
	BackendNone   = "none"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Config is the full configuration for a running engine.
type Config struct {
	Vault   VaultConfig   `yaml:"vault"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// VaultConfig locates the note collection on disk.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// CacheConfig sizes the in-memory tier and selects the durable one.
type CacheConfig struct {
	Capacity int    `yaml:"capacity"`
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
}

// LoggingConfig controls the slog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given: the
// current directory as the vault, no durable cache, info logging.
func Default() *Config {
	return &Config{
		Vault:   VaultConfig{Path: "."},
		Cache:   CacheConfig{Backend: BackendNone},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable
// expansion, then validates it.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// LoadOrDefault loads the named file, or returns Default when filename
// is empty or the file does not exist.
func LoadOrDefault(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err := Load(filename, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

func (c *CacheConfig) Validate() error {
	// Normalise empty backend to "none".
	if c.Backend == "" {
		c.Backend = BackendNone
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Capacity, validation.Min(0)),
		validation.Field(&c.Backend, validation.In(BackendNone, BackendBolt, BackendSQLite)),
	); err != nil {
		return err
	}
	if c.Backend != BackendNone && c.Path == "" {
		return fmt.Errorf("cache: backend is %q but path is empty", c.Backend)
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	if c.Level == "" {
		c.Level = "info"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
	)
}

// SlogLevel maps the configured level name onto slog's scale.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
