// Package config defines all configuration structures for the
// PlanLens-Compare service.  No I/O or parsing logic lives here — only plain
// data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// APIKeys lists accepted dashboard API keys.  Empty disables auth,
	// which is only acceptable in debug mode.
	APIKeys []string `mapstructure:"api_keys"`

	// AllowedOrigins is the CORS allow-list for the dashboard frontend.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// RateLimitPerMinute caps requests per client IP; 0 disables.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute"`
}

// RemoteConfig holds connection parameters for the remote comparison /
// rendering service that owns persistence, overlay rendering, and the AI
// change-detection models.
type RemoteConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RedisConfig holds snapshot-cache connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds event-bus producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	ProducerRetries int           `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// JobBudget is the polling bound for one job kind.  Every job must carry a
// bound; a poller with neither attempts nor wall-clock budget is a
// programming error surfaced at construction time.
type JobBudget struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// PollingConfig holds per-job-kind polling budgets plus the shared
// unreachable threshold.
type PollingConfig struct {
	// ComparisonGeneration: long overlay renders.  300 × 1s ≈ 5 minutes.
	ComparisonGeneration JobBudget `mapstructure:"comparison_generation"`

	// ChangeAnalysis: AI change detection.  12 × 5s ≈ 60 seconds.
	ChangeAnalysis JobBudget `mapstructure:"change_analysis"`

	// DrawingIngestion: sheet extraction.  60 × 2s ≈ 2 minutes.
	DrawingIngestion JobBudget `mapstructure:"drawing_ingestion"`

	// MaxConsecutiveFetchFailures is how many back-to-back status-fetch
	// errors are tolerated as no-op ticks before the job is declared
	// unreachable.
	MaxConsecutiveFetchFailures int `mapstructure:"max_consecutive_fetch_failures"`
}

// AlignmentConfig holds estimator tunables.
type AlignmentConfig struct {
	// Epsilon is the minimum summed squared radius of the centroid-relative
	// source points; below it the point set is degenerate.
	Epsilon float64 `mapstructure:"epsilon"`

	// ResidualWarn is the RMS residual above which a registration is
	// flagged low-confidence (still returned, never an error).
	ResidualWarn float64 `mapstructure:"residual_warn"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire service.  Every
// infrastructure component and application service reads its settings from
// the relevant sub-struct.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Alignment AlignmentConfig `mapstructure:"alignment"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.Mode == "release" && len(c.Server.APIKeys) == 0 {
		return fmt.Errorf("config: server.api_keys is required in release mode")
	}

	// Remote
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("config: remote.base_url is required")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("config: remote.timeout must be positive, got %s", c.Remote.Timeout)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Polling — every job kind needs a real bound.
	for _, b := range []struct {
		name   string
		budget JobBudget
	}{
		{"comparison_generation", c.Polling.ComparisonGeneration},
		{"change_analysis", c.Polling.ChangeAnalysis},
		{"drawing_ingestion", c.Polling.DrawingIngestion},
	} {
		if b.budget.PollInterval <= 0 {
			return fmt.Errorf("config: polling.%s.poll_interval must be positive", b.name)
		}
		if b.budget.MaxAttempts < 1 {
			return fmt.Errorf("config: polling.%s.max_attempts must be ≥ 1", b.name)
		}
	}
	if c.Polling.MaxConsecutiveFetchFailures < 1 {
		return fmt.Errorf("config: polling.max_consecutive_fetch_failures must be ≥ 1, got %d",
			c.Polling.MaxConsecutiveFetchFailures)
	}

	// Alignment
	if c.Alignment.Epsilon <= 0 {
		return fmt.Errorf("config: alignment.epsilon must be positive, got %g", c.Alignment.Epsilon)
	}
	if c.Alignment.ResidualWarn <= 0 {
		return fmt.Errorf("config: alignment.residual_warn must be positive, got %g", c.Alignment.ResidualWarn)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
