// CLI client entry point for PlanLens-Compare.
package main

import (
	"os"

	"github.com/planlens/PlanLens-Compare/internal/application/alignment"
	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/application/polling"
	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/remote"
	"github.com/planlens/PlanLens-Compare/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(buildDependencies); err != nil {
		os.Exit(1)
	}
}

// buildDependencies wires the production service graph for CLI commands.
// The CLI talks to the remote comparison service directly; no cache, event
// bus, or metrics are involved.
func buildDependencies(cfg *config.Config, logger logging.Logger) (*cli.Dependencies, error) {
	adapter, err := remote.New(cfg.Remote, logger)
	if err != nil {
		return nil, err
	}

	poller, err := polling.NewPoller(cfg.Polling, adapter, logger)
	if err != nil {
		return nil, err
	}

	estimator := alignment.NewEstimator(alignment.Config{
		Epsilon:      cfg.Alignment.Epsilon,
		ResidualWarn: cfg.Alignment.ResidualWarn,
	}, logger)

	aggregator := changeset.NewAggregator(adapter, logger)
	changes := changeset.NewService(aggregator, adapter, nil, logger)
	orch := appcmp.NewOrchestrator(adapter, poller, estimator, changes, nil, logger)

	return &cli.Dependencies{
		Comparisons: orch,
		Changes:     changes,
		Logger:      logger,
	}, nil
}
