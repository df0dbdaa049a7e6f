// Package config loads versionmail settings from an optional YAML file,
// overlays environment variables, and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/daviddao/versionmail/pkg/resolve"
	"github.com/daviddao/versionmail/pkg/vclock"
)

// Environment variables read by Load.
const (
	EnvConfig   = "VM_CONFIG"
	EnvDB       = "VM_DB"
	EnvReplica  = "VM_REPLICA"
	EnvStrategy = "VM_STRATEGY"
	EnvLogLevel = "VM_LOG_LEVEL"
)

// DefaultDB is the database path used when none is configured.
const DefaultDB = ".versionmail/versionmail.db"

// Config holds the host settings.
type Config struct {
	// DB is the SQLite mailbox path.
	DB string `yaml:"db"`
	// Replica is the default local replica id; nil when unset.
	Replica *vclock.ReplicaID `yaml:"replica"`
	// Strategy names the conflict-resolution strategy (see resolve.ByName).
	Strategy string `yaml:"strategy"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Limit caps how many messages one receive drains.
	Limit int `yaml:"limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DB:       DefaultDB,
		Strategy: resolve.NameConcat,
		LogLevel: "warn",
		Limit:    100,
	}
}

// Load reads path (if non-empty and present), then applies environment
// overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DB = v
	}
	if v := os.Getenv(EnvReplica); v != "" {
		id, err := ParseReplicaID(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReplica, err)
		}
		cfg.Replica = &id
	}
	if v := os.Getenv(EnvStrategy); v != "" {
		cfg.Strategy = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if c.DB == "" {
		return fmt.Errorf("db path cannot be empty")
	}
	if _, err := resolve.ByName(c.Strategy); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", c.Limit)
	}
	return nil
}

// ParseReplicaID parses a decimal replica id that fits in 32 bits.
func ParseReplicaID(s string) (vclock.ReplicaID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid replica id %q: %w", s, err)
	}
	return vclock.ReplicaID(n), nil
}
