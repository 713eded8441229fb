// Package config provides configuration loading, defaults, and validation
// for the PlanLens-Compare service.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all service settings.
const envPrefix = "PLANLENS"

// newViper builds a pre-configured Viper instance with the service's
// standard settings: YAML file type, PLANLENS_ env prefix, automatic env
// binding, and a key replacer that maps "." → "_" so that nested keys like
// "remote.base_url" resolve to "PLANLENS_REMOTE_BASE_URL".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Viper only unmarshals keys it has seen; without these bindings a
	// config assembled purely from environment variables comes back empty.
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// configKeys lists every known configuration key so that environment-only
// loading (LoadFromEnv) resolves them through AutomaticEnv.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout", "server.api_keys", "server.allowed_origins",
	"server.rate_limit_per_minute",
	"remote.base_url", "remote.api_key", "remote.timeout", "remote.max_retries",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.min_idle_conns", "redis.dial_timeout", "redis.read_timeout",
	"redis.write_timeout", "redis.default_ttl", "redis.key_prefix",
	"kafka.brokers", "kafka.group_id", "kafka.auto_offset_reset",
	"kafka.producer_retries", "kafka.batch_timeout", "kafka.write_timeout",
	"polling.comparison_generation.poll_interval", "polling.comparison_generation.max_attempts",
	"polling.change_analysis.poll_interval", "polling.change_analysis.max_attempts",
	"polling.drawing_ingestion.poll_interval", "polling.drawing_ingestion.max_attempts",
	"polling.max_consecutive_fetch_failures",
	"alignment.epsilon", "alignment.residual_warn",
	"worker.concurrency", "worker.heartbeat_interval",
	"log.level", "log.format", "log.output_paths", "log.error_output_paths",
}

// Load reads the YAML file at configPath, merges any PLANLENS_* environment
// variable overrides, applies service defaults for unset fields, and
// validates the result.  It returns a fully-populated *Config or a
// descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PLANLENS_* environment
// variables, with no config file required.  This is the preferred loading
// strategy for containerised deployments.
//
// Environment variable naming convention:
//
//	PLANLENS_<SECTION>_<FIELD>   e.g.  PLANLENS_REMOTE_BASE_URL, PLANLENS_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file — rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level and rate-limit
// thresholds; callers are responsible for applying only the safe subset of
// changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is NOT called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// Skip the callback to prevent the application from entering a
			// broken state.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is always
// fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
