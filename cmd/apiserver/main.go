// API server entry point for PlanLens-Compare.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
	redisinfra "github.com/planlens/PlanLens-Compare/internal/infrastructure/cache/redis"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/messaging/kafka"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/prometheus"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/remote"
	httpserver "github.com/planlens/PlanLens-Compare/internal/interfaces/http"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/handlers"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting PlanLens-Compare API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "planlens",
		Subsystem:            "compare",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build metrics collector", logging.Err(err))
	}
	appMetrics := prometheus.NewAppMetrics(collector)

	adapter, err := remote.New(cfg.Remote, logger)
	if err != nil {
		logger.Fatal("failed to build remote adapter", logging.Err(err))
	}

	var checkers []handlers.HealthChecker

	var cache changeset.SnapshotCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redisinfra.NewClient(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		defer redisClient.Close()
		cache = redisinfra.NewSnapshotCache(redisClient, logger)
		checkers = append(checkers, handlers.HealthCheckerFunc{
			ComponentName: "redis",
			CheckFunc:     redisClient.Ping,
		})
	} else {
		logger.Warn("redis not configured; snapshot caching disabled")
	}

	var publisher appcmp.StatusPublisher
	var queue handlers.RequestQueue
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("failed to build kafka producer", logging.Err(err))
		}
		defer producer.Close()
		publisher = producer
		queue = producer
	} else {
		logger.Warn("kafka not configured; status events and queued submits disabled")
	}

	poller, err := polling.NewPoller(cfg.Polling, adapter, logger,
		polling.WithListener(appMetrics.PollListener()))
	if err != nil {
		logger.Fatal("invalid polling configuration", logging.Err(err))
	}

	estimator := alignment.NewEstimator(alignment.Config{
		Epsilon:      cfg.Alignment.Epsilon,
		ResidualWarn: cfg.Alignment.ResidualWarn,
	}, logger)

	aggregator := changeset.NewAggregator(adapter, logger)
	changes := changeset.NewService(aggregator, adapter, cache, logger)
	orch := appcmp.NewOrchestrator(adapter, poller, estimator, changes, publisher, logger)

	router := buildRouter(cfg, orch, changes, queue, collector, appMetrics, checkers, logger)
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Fatal("HTTP server failed", logging.Err(err))
		}
		return
	}

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("shutdown error", logging.Err(err))
	}
	logger.Info("PlanLens-Compare API server stopped")
}

// buildRouter assembles the handler and middleware graph around the
// application services.
func buildRouter(
	cfg *config.Config,
	orch *appcmp.Orchestrator,
	changes *changeset.Service,
	queue handlers.RequestQueue,
	collector prometheus.MetricsCollector,
	appMetrics *prometheus.AppMetrics,
	checkers []handlers.HealthChecker,
	logger logging.Logger,
) http.Handler {
	skipPaths := []string{"/healthz", "/readyz", "/metrics"}

	auth := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Keys:      cfg.Server.APIKeys,
		SkipPaths: skipPaths,
	}, logger)

	var rateLimit func(http.Handler) http.Handler
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitPerMinute, 5*time.Minute)
		rateLimit = middleware.RateLimit(limiter, middleware.DefaultRateLimitConfig(cfg.Server.RateLimitPerMinute))
	}

	return httpserver.NewRouter(httpserver.RouterConfig{
		ComparisonHandler: handlers.NewComparisonHandler(orch, queue, logger),
		ChangeHandler:     handlers.NewChangeHandler(changes, logger),
		HealthHandler:     handlers.NewHealthHandler(version, appMetrics, checkers...),

		AuthMiddleware:   auth,
		CORS:             middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)),
		RequestLogging:   middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		RateLimit:        rateLimit,
		Metrics:          appMetrics,
		MetricsCollector: collector,
	})
}

// loadConfig resolves the configuration source: explicit path, then the
// default location, then environment only.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.LoadFromEnv()
}
