package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts run outcomes for a batch. Registered on a private registry
// so parallel batches in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	verdicts    *prometheus.CounterVec
	rounds      prometheus.Counter
	runDuration prometheus.Histogram
	runFailures prometheus.Counter
}

// NewMetrics creates and registers the batch metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guardian_runs_total",
			Help: "Completed runs by terminal verdict.",
		}, []string{"verdict"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardian_rounds_total",
			Help: "Evaluation rounds executed across all runs.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "guardian_run_duration_seconds",
			Help:    "Wall time of one task's full repair loop.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		runFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "guardian_run_failures_total",
			Help: "Runs that ended in a harness error rather than a verdict.",
		}),
	}
	m.registry.MustRegister(m.verdicts, m.rounds, m.runDuration, m.runFailures)
	return m
}

// Registry exposes the batch registry for scraping or test inspection.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeRun(verdict string, rounds int, elapsed time.Duration) {
	m.verdicts.WithLabelValues(verdict).Inc()
	m.rounds.Add(float64(rounds))
	m.runDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure() {
	m.runFailures.Inc()
}
