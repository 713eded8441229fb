package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultRemoteTimeout    = 15 * time.Second
	DefaultRemoteMaxRetries = 2

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 5 * time.Minute
	DefaultRedisKeyPrefix = "planlens:"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "planlens-workers"

	// Comparison generation: overlay renders run minutes-long.
	DefaultComparisonPollInterval = 1 * time.Second
	DefaultComparisonMaxAttempts  = 300

	// Change analysis: the AI pass is expected within a minute.
	DefaultAnalysisPollInterval = 5 * time.Second
	DefaultAnalysisMaxAttempts  = 12

	// Drawing ingestion: sheet extraction per uploaded drawing.
	DefaultIngestionPollInterval = 2 * time.Second
	DefaultIngestionMaxAttempts  = 60

	DefaultMaxConsecutiveFetchFailures = 5

	// Alignment point space is [0,1000]; an RMS residual of 25 units is
	// roughly a quarter grid cell and marks a sloppy point pick.
	DefaultAlignmentEpsilon      = 1e-9
	DefaultAlignmentResidualWarn = 25.0

	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service
// default.  Fields already set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// ── Remote ────────────────────────────────────────────────────────────────
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}
	if cfg.Remote.MaxRetries == 0 {
		cfg.Remote.MaxRetries = DefaultRemoteMaxRetries
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// ── Polling ───────────────────────────────────────────────────────────────
	if cfg.Polling.ComparisonGeneration.PollInterval == 0 {
		cfg.Polling.ComparisonGeneration.PollInterval = DefaultComparisonPollInterval
	}
	if cfg.Polling.ComparisonGeneration.MaxAttempts == 0 {
		cfg.Polling.ComparisonGeneration.MaxAttempts = DefaultComparisonMaxAttempts
	}
	if cfg.Polling.ChangeAnalysis.PollInterval == 0 {
		cfg.Polling.ChangeAnalysis.PollInterval = DefaultAnalysisPollInterval
	}
	if cfg.Polling.ChangeAnalysis.MaxAttempts == 0 {
		cfg.Polling.ChangeAnalysis.MaxAttempts = DefaultAnalysisMaxAttempts
	}
	if cfg.Polling.DrawingIngestion.PollInterval == 0 {
		cfg.Polling.DrawingIngestion.PollInterval = DefaultIngestionPollInterval
	}
	if cfg.Polling.DrawingIngestion.MaxAttempts == 0 {
		cfg.Polling.DrawingIngestion.MaxAttempts = DefaultIngestionMaxAttempts
	}
	if cfg.Polling.MaxConsecutiveFetchFailures == 0 {
		cfg.Polling.MaxConsecutiveFetchFailures = DefaultMaxConsecutiveFetchFailures
	}

	// ── Alignment ─────────────────────────────────────────────────────────────
	if cfg.Alignment.Epsilon == 0 {
		cfg.Alignment.Epsilon = DefaultAlignmentEpsilon
	}
	if cfg.Alignment.ResidualWarn == 0 {
		cfg.Alignment.ResidualWarn = DefaultAlignmentResidualWarn
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HeartbeatInterval == 0 {
		cfg.Worker.HeartbeatInterval = 30 * time.Second
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
