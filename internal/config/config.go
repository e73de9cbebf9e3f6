// Package config loads server configuration from an optional YAML file and
// environment overrides. The result is read once at startup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	redisstorage "github.com/mcoot/eloladder/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Environment variables
const (
	EnvConfigPath    = "LADDER_CONFIG"
	EnvStorageType   = "STORAGE_TYPE"
	EnvRedisURL      = "REDIS_URL"
	EnvSQLitePath    = "SQLITE_PATH"
	EnvTokenSecret   = "LADDER_TOKEN_SECRET"
	EnvAdminKeyHash  = "LADDER_ADMIN_KEY_HASH"
	EnvInitialRating = "LADDER_INITIAL_RATING"
	EnvKFactor       = "LADDER_K_FACTOR"
	EnvPort          = "PORT"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config is the full server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Ladder   LadderConfig   `yaml:"ladder"`
	Identity IdentityConfig `yaml:"identity"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig holds the listen address
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and configures the rating store
type StorageConfig struct {
	Type       string              `yaml:"type"`
	SQLitePath string              `yaml:"sqlite_path"`
	Redis      redisstorage.Config `yaml:"redis"`
}

// LadderConfig holds rating constants
type LadderConfig struct {
	InitialRating float64 `yaml:"initial_rating"`
	KFactor       float64 `yaml:"k_factor"`
	// Scale is the Elo divisor. Zero means use InitialRating.
	Scale float64 `yaml:"scale"`
}

// IdentityConfig holds token and admin key settings
type IdentityConfig struct {
	TokenSecret  string        `yaml:"token_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	AdminKeyHash string        `yaml:"admin_key_hash"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Storage: StorageConfig{
			Type:       StorageTypeMemory,
			SQLitePath: "ladder.db",
			Redis:      redisstorage.DefaultConfig(),
		},
		Ladder: LadderConfig{
			InitialRating: 400,
			KFactor:       32,
		},
		Identity: IdentityConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the process environment
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds configuration using getenv: defaults, then the YAML file
// named by LADDER_CONFIG if set, then individual environment overrides.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv(EnvConfigPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := decode(bytes.NewReader(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvStorageType); v != "" {
		cfg.Storage.Type = strings.ToLower(v)
	}
	if v := getenv(EnvRedisURL); v != "" {
		cfg.Storage.Redis.URL = v
	}
	if v := getenv(EnvSQLitePath); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := getenv(EnvTokenSecret); v != "" {
		cfg.Identity.TokenSecret = v
	}
	if v := getenv(EnvAdminKeyHash); v != "" {
		cfg.Identity.AdminKeyHash = v
	}
	if v := getenv(EnvInitialRating); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInitialRating, err)
		}
		cfg.Ladder.InitialRating = f
	}
	if v := getenv(EnvKFactor); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvKFactor, err)
		}
		cfg.Ladder.KFactor = f
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.Redis.URL == "" {
			return errors.New("redis url required when storage type is redis")
		}
	case StorageTypeSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite path required when storage type is sqlite")
		}
	default:
		return fmt.Errorf("invalid storage type %q: must be memory, redis or sqlite", c.Storage.Type)
	}

	if c.Ladder.InitialRating <= 0 {
		return errors.New("initial rating must be positive")
	}
	if c.Ladder.KFactor <= 0 {
		return errors.New("k factor must be positive")
	}
	if c.Ladder.Scale < 0 {
		return errors.New("scale must not be negative")
	}
	if c.Identity.TokenSecret == "" {
		return fmt.Errorf("token secret required (set %s)", EnvTokenSecret)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel as a slog level name (debug, info, warn, error)
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
