// Background worker entry point for PlanLens-Compare.  Consumes queued
// comparison requests from Kafka and drives the full generation pipeline
// for each: submit to the remote service, poll to completion, publish
// lifecycle events.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/messaging/kafka"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/prometheus"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/remote"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultHealthPort = 8081

	// jobTimeout bounds one generation end to end.  The poller's own
	// budget is tighter; this is the hard stop.
	jobTimeout = 10 * time.Minute
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	concurrency := flag.Int("workers", 0, "number of concurrent consumers (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
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
	logger = logger.Named("worker")

	numWorkers := cfg.Worker.Concurrency
	if *concurrency > 0 {
		numWorkers = *concurrency
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	logger.Info("starting PlanLens-Compare worker",
		logging.String("version", version),
		logging.Int("workers", numWorkers))

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "planlens",
		Subsystem:            "worker",
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

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("failed to build kafka producer", logging.Err(err))
	}
	defer producer.Close()

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
	changes := changeset.NewService(aggregator, adapter, nil, logger)
	orch := appcmp.NewOrchestrator(adapter, poller, estimator, changes, producer, logger)

	handler := func(ctx context.Context, ev kafka.RequestedEvent) error {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		cmp, err := orch.Generate(jobCtx, comparison.SubmitRequest{
			SourceBlockRef: ev.SourceBlockRef,
			TargetBlockRef: ev.TargetBlockRef,
		})
		if err != nil {
			return err
		}
		logger.Info("queued comparison generated",
			logging.String("comparison_id", string(cmp.ID)),
			logging.String("source", ev.SourceBlockRef),
			logging.String("target", ev.TargetBlockRef))
		return nil
	}

	// Each consumer joins the same group; Kafka spreads partitions across
	// them, so concurrency scales with the topic's partition count.
	consumers := make([]*kafka.RequestedConsumer, 0, numWorkers)
	for i := 0; i < numWorkers; i++ {
		consumer, err := kafka.NewRequestedConsumer(cfg.Kafka, handler, logger)
		if err != nil {
			logger.Fatal("failed to create kafka consumer", logging.Err(err))
		}
		consumers = append(consumers, consumer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i, consumer := range consumers {
		wg.Add(1)
		go func(id int, c *kafka.RequestedConsumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("consumer stopped", logging.Int("consumer", id), logging.Err(err))
			}
		}(i, consumer)
	}

	if cfg.Worker.HeartbeatInterval > 0 {
		go heartbeatLoop(ctx, cfg.Worker.HeartbeatInterval, consumers, logger)
	}

	healthSrv := startHealthServer(collector, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("all consumers stopped")
	case <-time.After(jobTimeout + 30*time.Second):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("PlanLens-Compare worker stopped")
}

// heartbeatLoop periodically logs throughput so a stalled worker is visible
// in the logs even without metrics scraping.
func heartbeatLoop(ctx context.Context, interval time.Duration, consumers []*kafka.RequestedConsumer, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var processed, failed int64
			for _, c := range consumers {
				processed += c.Processed()
				failed += c.Failed()
			}
			logger.Info("worker heartbeat",
				logging.Int("processed", int(processed)),
				logging.Int("failed", int(failed)))
		}
	}
}

// startHealthServer exposes liveness probes and metrics for the worker
// process on a side port.
func startHealthServer(collector prometheus.MetricsCollector, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", defaultHealthPort),
		Handler: mux,
	}

	go func() {
		logger.Info("health server listening", logging.Int("port", defaultHealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()

	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.LoadFromEnv()
}
