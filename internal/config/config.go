// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles for the admin surface.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// PipelineConfig governs the candidate workers and the maintenance pass.
type PipelineConfig struct {
	Workers             int    `mapstructure:"workers"`
	QueueDepth          int    `mapstructure:"queue_depth"`
	UserAgent           string `mapstructure:"user_agent"`
	DeadAfterProbes     int    `mapstructure:"dead_after_probes"`
	InactiveAfterMisses int    `mapstructure:"inactive_after_misses"`
	VerifyTimeoutSec    int    `mapstructure:"verify_timeout_seconds"`
	RecheckIntervalMin  int    `mapstructure:"recheck_interval_minutes"`
	RecheckBatch        int    `mapstructure:"recheck_batch"`
	RecheckAfterHours   int    `mapstructure:"recheck_after_hours"`
}

// HTTPConfig configures outbound HTTP client behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the store repository.
type DBConfig struct {
	Provider     string `mapstructure:"provider"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MinOpenConns int    `mapstructure:"min_open_conns"`
}

// CacheConfig controls the verification verdict cache.
type CacheConfig struct {
	Provider string `mapstructure:"provider"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// SnapshotConfig sets where raw page bodies are archived.
type SnapshotConfig struct {
	Provider    string `mapstructure:"provider"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	BaseDir     string `mapstructure:"base_dir"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_depth", 256)
	v.SetDefault("pipeline.user_agent", "sneaklink-catalog/0.1")
	v.SetDefault("pipeline.dead_after_probes", 3)
	v.SetDefault("pipeline.inactive_after_misses", 3)
	v.SetDefault("pipeline.verify_timeout_seconds", 10)
	v.SetDefault("pipeline.recheck_interval_minutes", 60)
	v.SetDefault("pipeline.recheck_batch", 100)
	v.SetDefault("pipeline.recheck_after_hours", 24)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.max_open_conns", 8)
	v.SetDefault("db.min_open_conns", 1)
	v.SetDefault("cache.provider", "memory")
	v.SetDefault("cache.prefix", "catalog")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("snapshot.provider", "noop")
	v.SetDefault("snapshot.prefix", "pages")
	v.SetDefault("snapshot.content_type", "text/html; charset=utf-8")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.topic", "store-confirmed")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	if c.Pipeline.DeadAfterProbes <= 0 {
		return fmt.Errorf("pipeline.dead_after_probes must be > 0")
	}
	if c.Pipeline.InactiveAfterMisses <= 0 {
		return fmt.Errorf("pipeline.inactive_after_misses must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("db.provider must be postgres or memory, got %q", c.DB.Provider)
	}
	switch c.Cache.Provider {
	case "redis":
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr must be set when cache.provider is redis")
		}
	case "memory":
	default:
		return fmt.Errorf("cache.provider must be redis or memory, got %q", c.Cache.Provider)
	}
	switch c.Snapshot.Provider {
	case "gcs":
		if c.Snapshot.GCSBucket == "" {
			return fmt.Errorf("snapshot.gcs_bucket must be set when snapshot.provider is gcs")
		}
	case "local":
		if c.Snapshot.BaseDir == "" {
			return fmt.Errorf("snapshot.base_dir must be set when snapshot.provider is local")
		}
	case "noop":
	default:
		return fmt.Errorf("snapshot.provider must be gcs, local, or noop, got %q", c.Snapshot.Provider)
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// VerifyStepTimeout converts the verification step budget into a duration.
func (c Config) VerifyStepTimeout() time.Duration {
	return time.Duration(c.Pipeline.VerifyTimeoutSec) * time.Second
}

// CacheTTL converts the verdict cache TTL into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// RecheckInterval converts the maintenance cadence into a duration.
func (c Config) RecheckInterval() time.Duration {
	return time.Duration(c.Pipeline.RecheckIntervalMin) * time.Minute
}

// RecheckAfter converts the staleness cutoff into a duration.
func (c Config) RecheckAfter() time.Duration {
	return time.Duration(c.Pipeline.RecheckAfterHours) * time.Hour
}
