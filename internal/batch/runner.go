// Package batch runs the repair loop across a task set with bounded
// parallelism.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"guardian/internal/async"
	"guardian/internal/harness"
	"guardian/internal/logging"
)

// TaskReport is the outcome of one task within a batch. Err is set when the
// run aborted before reaching a verdict.
type TaskReport struct {
	TaskID  string
	Verdict harness.Verdict
	Rounds  int
	Elapsed time.Duration
	Err     error
}

// Report aggregates a whole batch.
type Report struct {
	BatchID string
	Started time.Time
	Elapsed time.Duration
	Tasks   []TaskReport
}

// Counts returns per-verdict totals plus the failed-run count.
func (r *Report) Counts() (ok, abstain, veto, failed int) {
	for _, t := range r.Tasks {
		switch {
		case t.Err != nil:
			failed++
		case t.Verdict == harness.VerdictOK:
			ok++
		case t.Verdict == harness.VerdictAbstain:
			abstain++
		case t.Verdict == harness.VerdictVeto:
			veto++
		}
	}
	return ok, abstain, veto, failed
}

// ControllerFactory builds a fresh controller per task, keeping task runs
// isolated from each other.
type ControllerFactory func(task *harness.Task) *harness.Controller

// Runner fans a task set out over a worker pool.
type Runner struct {
	factory    ControllerFactory
	workers    int
	metrics    *Metrics
	logger     logging.Logger
	progressIv time.Duration
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithMetrics attaches a metric set.
func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithProgressInterval sets how often the runner logs batch progress. Zero
// disables progress logging.
func WithProgressInterval(d time.Duration) RunnerOption {
	return func(r *Runner) { r.progressIv = d }
}

// NewRunner creates a batch runner with the given parallelism.
func NewRunner(factory ControllerFactory, workers int, logger logging.Logger, opts ...RunnerOption) *Runner {
	if workers <= 0 {
		workers = 1
	}
	r := &Runner{
		factory:    factory,
		workers:    workers,
		logger:     logging.OrNop(logger),
		progressIv: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every task and returns the batch report. A task failing does
// not stop the others; context cancellation does.
func (r *Runner) Run(ctx context.Context, tasks []*harness.Task) *Report {
	report := &Report{
		BatchID: uuid.NewString(),
		Started: time.Now(),
		Tasks:   make([]TaskReport, len(tasks)),
	}
	r.logger.Info("batch %s: %d tasks, %d workers", report.BatchID, len(tasks), r.workers)

	var done sync.WaitGroup
	var completed int64
	var mu sync.Mutex

	var stop chan struct{}
	if r.progressIv > 0 {
		stop = make(chan struct{})
		done.Add(1)
		async.Go(r.logger, "batch.progress", func() {
			defer done.Done()
			ticker := time.NewTicker(r.progressIv)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					mu.Lock()
					n := completed
					mu.Unlock()
					r.logger.Info("batch %s: %d/%d tasks complete", report.BatchID, n, len(tasks))
				}
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				report.Tasks[i] = TaskReport{TaskID: task.ID, Err: err}
				mu.Unlock()
				return err
			}
			start := time.Now()
			run, err := r.factory(task).Run(gctx, task)
			elapsed := time.Since(start)

			tr := TaskReport{TaskID: task.ID, Elapsed: elapsed, Err: err}
			if err != nil {
				r.logger.Error("task %s failed after %v: %v", task.ID, elapsed, err)
				if r.metrics != nil {
					r.metrics.observeFailure()
				}
			} else {
				tr.Verdict = run.Verdict
				tr.Rounds = len(run.Rounds)
				r.logger.Info("task %s: %s at tau=%d (%v)", task.ID, run.Verdict, run.FinalTau, elapsed)
				if r.metrics != nil {
					r.metrics.observeRun(string(run.Verdict), len(run.Rounds), elapsed)
				}
			}

			mu.Lock()
			report.Tasks[i] = tr
			completed++
			mu.Unlock()
			// Per-task failures are isolated; only cancellation propagates.
			return gctx.Err()
		})
	}

	_ = g.Wait()
	if stop != nil {
		close(stop)
		done.Wait()
	}
	report.Elapsed = time.Since(report.Started)
	return report
}
