// Package polling drives remote asynchronous jobs to a terminal state.
//
// Every job the service ever waits on goes through one Poller.Await call,
// which owns the full lifecycle: submitted → polling → one of completed,
// failed, timed-out, unreachable, or cancelled.  There is no unbounded wait
// anywhere — a poller whose budget has neither an attempt cap nor a positive
// interval is rejected at construction.
package polling

import (
	"context"
	"time"

	"github.com/planlens/PlanLens-Compare/internal/config"
	domaincmp "github.com/planlens/PlanLens-Compare/internal/domain/comparison"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// Phase is the poller-side lifecycle state, a superset of the remote status
// lattice: the remote service only knows pending/processing/completed/failed,
// while the poller additionally owns the timed-out, unreachable, and
// cancelled outcomes.
type Phase string

const (
	PhaseSubmitted   Phase = "submitted"
	PhasePolling     Phase = "polling"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
	PhaseTimedOut    Phase = "timed_out"
	PhaseUnreachable Phase = "unreachable"
	PhaseCancelled   Phase = "cancelled"
)

// Terminal reports whether p is an end state of the poller.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseCompleted, PhaseFailed, PhaseTimedOut, PhaseUnreachable, PhaseCancelled:
		return true
	}
	return false
}

// Transition is one observed state change, delivered to the listener.  The
// listener runs on the polling goroutine and must not block.
type Transition struct {
	JobID    common.ID
	Kind     comparison.JobKind
	From     Phase
	To       Phase
	Attempt  int
	Progress float64
}

// Listener receives transitions; nil is allowed.
type Listener func(Transition)

// StatusFetcher is the slice of the remote port the poller needs.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID common.ID) (*comparison.JobStatusResponse, error)
}

// Result is the terminal observation of a successfully completed job.
type Result struct {
	JobID       common.ID
	Kind        comparison.JobKind
	ArtifactRef string
	Score       *float64
	Attempts    int
	Elapsed     time.Duration
}

// Poller awaits remote jobs under per-kind budgets.  Safe for concurrent use;
// each Await call is independent.
type Poller struct {
	cfg      config.PollingConfig
	fetch    StatusFetcher
	logger   logging.Logger
	listener Listener
}

// Option configures a Poller.
type Option func(*Poller)

// WithListener installs a transition listener (metrics, event publishing).
func WithListener(l Listener) Option {
	return func(p *Poller) { p.listener = l }
}

// NewPoller validates the per-kind budgets and constructs a Poller.  An
// unbounded budget is a programming error, not a runtime condition, so it is
// surfaced here rather than at Await time.
func NewPoller(cfg config.PollingConfig, fetch StatusFetcher, log logging.Logger, opts ...Option) (*Poller, error) {
	if fetch == nil {
		return nil, errors.Internal("polling: nil status fetcher")
	}
	for _, b := range []struct {
		kind   comparison.JobKind
		budget config.JobBudget
	}{
		{comparison.JobComparisonGeneration, cfg.ComparisonGeneration},
		{comparison.JobChangeAnalysis, cfg.ChangeAnalysis},
		{comparison.JobDrawingIngestion, cfg.DrawingIngestion},
	} {
		if b.budget.PollInterval <= 0 || b.budget.MaxAttempts < 1 {
			return nil, errors.New(errors.ErrCodeJobUnbounded,
				"polling budget for "+string(b.kind)+" is unbounded")
		}
	}
	if cfg.MaxConsecutiveFetchFailures < 1 {
		return nil, errors.New(errors.ErrCodeJobUnbounded,
			"max_consecutive_fetch_failures must be at least 1")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	p := &Poller{cfg: cfg, fetch: fetch, logger: log.Named("polling")}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Poller) budgetFor(kind comparison.JobKind) config.JobBudget {
	switch kind {
	case comparison.JobChangeAnalysis:
		return p.cfg.ChangeAnalysis
	case comparison.JobDrawingIngestion:
		return p.cfg.DrawingIngestion
	default:
		return p.cfg.ComparisonGeneration
	}
}

// Await polls jobID until it reaches a terminal phase and returns the result
// or a coded error:
//
//	JOB_001  the remote service reported the job failed
//	JOB_002  the budget ran out (including the final unconditional check)
//	JOB_003  too many consecutive status fetches errored
//	JOB_005  ctx was cancelled
//
// A remote "completed" without an artifact reference is not a completion —
// the overlay is the product, and a completion that cannot be displayed is
// treated as still in flight until the artifact appears or the budget runs
// out.
func (p *Poller) Await(ctx context.Context, kind comparison.JobKind, jobID common.ID) (*Result, error) {
	budget := p.budgetFor(kind)
	start := time.Now()

	st := &jobState{
		poller: p,
		kind:   kind,
		jobID:  jobID,
		phase:  PhaseSubmitted,
	}
	st.transition(PhasePolling)

	ticker := time.NewTicker(budget.PollInterval)
	defer ticker.Stop()

	for st.attempts < budget.MaxAttempts {
		select {
		case <-ctx.Done():
			st.transition(PhaseCancelled)
			return nil, errors.Wrap(ctx.Err(), errors.ErrCodeJobCancelled,
				"polling cancelled").WithDetail(string(jobID))
		case <-ticker.C:
		}

		st.attempts++
		done, res, err := st.observe(ctx, budget)
		if err != nil {
			return nil, err
		}
		if done {
			res.Elapsed = time.Since(start)
			return res, nil
		}
	}

	// Budget exhausted.  One final unconditional check: a job that finished
	// between the last tick and now must not be reported as timed out.
	st.attempts++
	done, res, err := st.observe(ctx, budget)
	if err == nil && done {
		res.Elapsed = time.Since(start)
		return res, nil
	}
	if errors.IsCode(err, errors.ErrCodeJobFailed) || errors.IsCode(err, errors.ErrCodePollingUnreachable) {
		return nil, err
	}

	st.transition(PhaseTimedOut)
	p.logger.Warn("job timed out",
		logging.String("job_id", string(jobID)),
		logging.String("kind", string(kind)),
		logging.Int("attempts", st.attempts),
		logging.Bool("bare_completion_seen", st.sawBareComplete),
		logging.Duration("elapsed", time.Since(start)))
	detail := string(jobID)
	if st.sawBareComplete {
		detail += ": remote reported completion but never produced an artifact"
	}
	return nil, errors.New(errors.ErrCodeJobTimedOut,
		"job did not reach a terminal state within its budget").WithDetail(detail)
}

// jobState is the per-Await mutable state.
type jobState struct {
	poller *Poller
	kind   comparison.JobKind
	jobID  common.ID

	phase           Phase
	attempts        int
	consecFailures  int
	lastProgress    float64
	sawBareComplete bool
}

func (s *jobState) transition(to Phase) {
	from := s.phase
	s.phase = to
	if s.poller.listener != nil {
		s.poller.listener(Transition{
			JobID:    s.jobID,
			Kind:     s.kind,
			From:     from,
			To:       to,
			Attempt:  s.attempts,
			Progress: s.lastProgress,
		})
	}
}

// observe performs one status fetch and classifies the outcome.  done is true
// only for a genuine completion; terminal failures come back as errors.
func (s *jobState) observe(ctx context.Context, budget config.JobBudget) (done bool, res *Result, err error) {
	resp, fetchErr := s.poller.fetch.FetchStatus(ctx, s.jobID)
	if fetchErr != nil {
		s.consecFailures++
		s.poller.logger.Warn("status fetch failed",
			logging.String("job_id", string(s.jobID)),
			logging.Int("consecutive", s.consecFailures),
			logging.Err(fetchErr))
		if s.consecFailures >= s.poller.cfg.MaxConsecutiveFetchFailures {
			s.transition(PhaseUnreachable)
			return false, nil, errors.Wrap(fetchErr, errors.ErrCodePollingUnreachable,
				"job status endpoint unreachable").WithDetail(string(s.jobID))
		}
		// A transient fetch error burns the tick, nothing else.
		return false, nil, nil
	}
	s.consecFailures = 0

	mapped, known := domaincmp.MapRemoteStatus(resp.Status)
	if !known {
		s.poller.logger.Warn("unrecognized remote status",
			logging.String("job_id", string(s.jobID)),
			logging.String("raw_status", resp.Status))
	}

	switch mapped {
	case comparison.StatusFailed:
		s.transition(PhaseFailed)
		return false, nil, errors.New(errors.ErrCodeJobFailed,
			"remote service reported job failure").WithDetail(string(s.jobID))

	case comparison.StatusCompleted:
		if resp.ArtifactRef == "" {
			s.sawBareComplete = true
			s.advanceProgress(resp, budget)
			s.transition(PhasePolling)
			s.poller.logger.Warn("completed status without artifact, still waiting",
				logging.String("job_id", string(s.jobID)))
			return false, nil, nil
		}
		s.lastProgress = 100
		s.transition(PhaseCompleted)
		return true, &Result{
			JobID:       s.jobID,
			Kind:        s.kind,
			ArtifactRef: resp.ArtifactRef,
			Score:       resp.Score,
			Attempts:    s.attempts,
		}, nil

	default: // pending, processing
		s.advanceProgress(resp, budget)
		// Self-transition so listeners see each progress tick.
		s.transition(PhasePolling)
		return false, nil, nil
	}
}

// advanceProgress keeps the operator-visible progress monotone and strictly
// below 100 while the job is in flight.  A remote-reported percentage is
// trusted but never allowed to move backwards or claim completion; absent
// one, progress is synthesized from attempts against the budget.
func (s *jobState) advanceProgress(resp *comparison.JobStatusResponse, budget config.JobBudget) {
	next := s.lastProgress
	if resp.ProgressPct != nil {
		next = *resp.ProgressPct
	} else {
		next = 95 * float64(s.attempts) / float64(budget.MaxAttempts)
	}
	if next > 99 {
		next = 99
	}
	if next > s.lastProgress {
		s.lastProgress = next
	}
}
