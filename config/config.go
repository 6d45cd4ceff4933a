package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// StorageBackend selects the record store implementation.
type StorageBackend string

const (
	StorageBackendJSON   StorageBackend = "json"
	StorageBackendSQLite StorageBackend = "sqlite"
)

// CacheType selects the summary cache backend.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the Pulseboard server.
type Config struct {
	// Listen is the address the Pulseboard server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// SessionKey is the key used to encrypt session cookies.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// SessionMaxAge is the maximum age of a session in seconds.
	SessionMaxAge int `yaml:"session_max_age" mapstructure:"session_max_age"`
	// DefaultLanguage is the language assigned to new accounts.
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"`
	// Storage holds the record store configuration.
	Storage *StorageConfig `yaml:"storage" mapstructure:"storage"`
	// Cache holds the cache configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
}

// StorageConfig holds the record store configuration.
type StorageConfig struct {
	// Backend is either "json" (flat files) or "sqlite".
	Backend StorageBackend `yaml:"backend" mapstructure:"backend"`
	// DataDir is the directory holding the JSON record files.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// CacheConfig holds the cache configuration.
type CacheConfig struct {
	// SnapshotTTL is the maximum age in seconds of a record snapshot before
	// it is reloaded regardless of the invalidation marker.
	SnapshotTTL int `yaml:"snapshot_ttl" mapstructure:"snapshot_ttl"`
	// SweepInterval is the interval in seconds between snapshot sweeps.
	SweepInterval int `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	// SummaryEnabled toggles the computed-summary cache.
	SummaryEnabled bool `yaml:"summary_enabled" mapstructure:"summary_enabled"`
	// Type is the summary cache backend, "memory" or "redis".
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the redis address used when Type is "redis".
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	// SummaryTTL is the lifetime in seconds of cached summaries.
	SummaryTTL int `yaml:"summary_ttl" mapstructure:"summary_ttl"`
}

// SnapshotTTLDuration returns the snapshot TTL as a duration.
func (c *CacheConfig) SnapshotTTLDuration() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Second
}

// SweepIntervalDuration returns the sweep interval as a duration.
func (c *CacheConfig) SweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// SummaryTTLDuration returns the summary TTL as a duration.
func (c *CacheConfig) SummaryTTLDuration() time.Duration {
	return time.Duration(c.SummaryTTL) * time.Second
}

// Load reads the configuration from the specified path and returns a Config
// struct. If path is empty, it searches common locations. Environment
// variables with the PULSEBOARD_ prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("PULSEBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.pulseboard")
		v.AddConfigPath("/etc/pulseboard")
	}

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are enough to run.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:3003")
	v.SetDefault("session_key", "")
	v.SetDefault("session_max_age", 172800) // 48 hours
	v.SetDefault("default_language", "en")

	v.SetDefault("storage.backend", "json")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.sqlite_path", "./data/pulseboard.db")

	v.SetDefault("cache.snapshot_ttl", 300) // 5 minutes
	v.SetDefault("cache.sweep_interval", 600)
	v.SetDefault("cache.summary_enabled", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.summary_ttl", 300)
}

func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing pulseboard config")
	}

	if c.SessionKey == "" {
		return fmt.Errorf("session key is required")
	}

	if c.Storage == nil {
		return fmt.Errorf("missing storage config")
	}
	switch c.Storage.Backend {
	case StorageBackendJSON:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage data_dir is required for the json backend")
		}
	case StorageBackendSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Cache == nil {
		return fmt.Errorf("missing cache config")
	}
	if c.Cache.SnapshotTTL <= 0 {
		return fmt.Errorf("cache snapshot_ttl must be positive")
	}
	if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is redis")
	}

	return nil
}
