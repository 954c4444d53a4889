// Package config loads the global ~/.teamspace/config.toml and applies
// environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

// Environment variables that override file values.
const (
	EnvWorkspace     = "TEAMSPACE_WORKSPACE"
	EnvBackend       = "TEAMSPACE_STORAGE_BACKEND"
	EnvRedisAddr     = "TEAMSPACE_REDIS_ADDR"
	EnvRedisDB       = "TEAMSPACE_REDIS_DB"
	EnvDeliveryDelay = "TEAMSPACE_DELIVERY_DELAY"
	EnvSweepInterval = "TEAMSPACE_SWEEP_INTERVAL"
	EnvLogLevel      = "TEAMSPACE_LOG_LEVEL"
)

// Duration is a time.Duration written as a string such as "1s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config represents the global ~/.teamspace/config.toml.
type Config struct {
	DefaultWorkspace string         `toml:"default_workspace"`
	Storage          StorageConfig  `toml:"storage"`
	Delivery         DeliveryConfig `toml:"delivery"`
	Meetings         MeetingsConfig `toml:"meetings"`
	Log              LogConfig      `toml:"log"`
}

// StorageConfig selects the blob store backend.
type StorageConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// DeliveryConfig tunes the message delivery simulator.
type DeliveryConfig struct {
	Delay Duration `toml:"delay"`
}

// MeetingsConfig tunes the meeting status sweep.
type MeetingsConfig struct {
	SweepInterval Duration `toml:"sweep_interval"`
}

// LogConfig sets the daemon log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:   BackendSQLite,
			RedisAddr: "localhost:6379",
		},
		Delivery: DeliveryConfig{Delay: Duration{time.Second}},
		Meetings: MeetingsConfig{SweepInterval: Duration{time.Minute}},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads config from the given path on top of Default. Returns an error
// if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and existing variables are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any TEAMSPACE_* variables that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvWorkspace); v != "" {
		c.DefaultWorkspace = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisDB); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRedisDB, err)
		}
		c.Storage.RedisDB = n
	}
	if v := os.Getenv(EnvDeliveryDelay); v != "" {
		if err := c.Delivery.Delay.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvDeliveryDelay, err)
		}
	}
	if v := os.Getenv(EnvSweepInterval); v != "" {
		if err := c.Meetings.SweepInterval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvSweepInterval, err)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks field values that cannot be fixed up by defaults.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendFile:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required for the redis backend")
	}
	if c.Delivery.Delay.Duration < 0 {
		return fmt.Errorf("delivery.delay must not be negative")
	}
	if c.Meetings.SweepInterval.Duration < 0 {
		return fmt.Errorf("meetings.sweep_interval must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
