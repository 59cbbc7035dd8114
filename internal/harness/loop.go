package harness

import (
	"context"
	"fmt"
	"math"
	"time"

	guarderrors "guardian/internal/errors"
	"guardian/internal/logging"
)

// Generator is the external generation collaborator. The initial call passes
// a nil previous candidate; repair calls carry the prior candidate and the
// findings accumulated against it.
type Generator interface {
	Generate(ctx context.Context, task *Task, prev *Candidate, findings []Finding) (*Candidate, error)
}

// Collector turns a candidate into findings plus a collector-local pass
// flag. Implementations must be pure with respect to the candidate source so
// the loop stays deterministic given deterministic external tools.
type Collector interface {
	Name() string
	Source() Source
	Evaluate(ctx context.Context, cand *Candidate, task *Task) ([]Finding, bool, error)
}

// Controller owns the per-task repair loop: generate, evaluate, decide,
// bounded by the policy's TauMax. It holds no state across tasks beyond what
// it writes to the sink.
type Controller struct {
	gen        Generator
	collectors []Collector
	scorer     Scorer
	policy     Policy
	sink       RecordSink

	roundTimeout     time.Duration
	plateauEpsilon   float64
	defaultThreshold float64
	logger           logging.Logger
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithRoundTimeout bounds each round's collector work. A collector that does
// not return in time surfaces as a collector-class finding, never a silent
// pass, which keeps the loop's termination guarantee intact.
func WithRoundTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.roundTimeout = d }
}

// WithPlateauStop enables early abstention when CRI improves by less than
// epsilon between two consecutive rounds. Disabled by default.
func WithPlateauStop(epsilon float64) ControllerOption {
	return func(c *Controller) { c.plateauEpsilon = epsilon }
}

// WithSink attaches the run-record sink the controller emits to on
// completion.
func WithSink(sink RecordSink) ControllerOption {
	return func(c *Controller) { c.sink = sink }
}

// WithDefaultThreshold sets the acceptance threshold used by tasks that do
// not declare their own.
func WithDefaultThreshold(threshold float64) ControllerOption {
	return func(c *Controller) { c.defaultThreshold = threshold }
}

// WithLogger attaches a logger.
func WithLogger(logger logging.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// NewController wires a repair loop from its collaborators.
func NewController(gen Generator, collectors []Collector, scorer Scorer, policy Policy, opts ...ControllerOption) *Controller {
	c := &Controller{
		gen:              gen,
		collectors:       collectors,
		scorer:           scorer,
		policy:           policy,
		roundTimeout:     5 * time.Minute,
		defaultThreshold: 80,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Run drives one task through the bounded repair loop and returns the full
// round history with its terminal verdict. Configuration violations surface
// as errors before any round runs; generation and collector failures are
// absorbed into the run record per the failure semantics.
func (c *Controller) Run(ctx context.Context, task *Task) (*RunResult, error) {
	if err := c.validate(task); err != nil {
		return nil, err
	}
	threshold := c.defaultThreshold
	if task.Threshold != nil {
		threshold = *task.Threshold
	}

	run := &RunResult{TaskID: task.ID}

	cand, err := c.gen.Generate(ctx, task, nil, nil)
	if err != nil {
		c.logger.Warn("task %s: initial generation failed: %v", task.ID, err)
		c.recordGenerationFailure(run, 0, err)
		return run, c.emit(ctx, run)
	}

	for {
		result := c.evaluateRound(ctx, cand, task)
		outcome := c.policy.Decide(result.CRI, result.SAD, result.TestsPassed, cand.Tau, threshold)

		if outcome == OutcomeContinue && c.plateaued(run, result) {
			c.logger.Info("task %s: CRI plateaued at %.2f, abstaining at tau=%d", task.ID, result.CRI, cand.Tau)
			outcome = OutcomeAbstain
		}

		run.Rounds = append(run.Rounds, RoundRecord{
			Tau:       cand.Tau,
			Result:    result,
			Outcome:   outcome,
			DecidedAt: time.Now(),
		})
		c.logger.Debug("task %s: tau=%d cri=%.2f sad=%v tests_passed=%v outcome=%s",
			task.ID, cand.Tau, result.CRI, result.SAD, result.TestsPassed, outcome)

		if verdict, ok := outcome.Verdict(); ok {
			run.Verdict = verdict
			run.FinalTau = cand.Tau
			return run, c.emit(ctx, run)
		}

		next, err := c.gen.Generate(ctx, task, cand, result.Findings)
		if err != nil {
			c.logger.Warn("task %s: repair generation failed at tau=%d: %v", task.ID, cand.Tau, err)
			c.recordGenerationFailure(run, cand.Tau+1, err)
			return run, c.emit(ctx, run)
		}
		cand = next
	}
}

func (c *Controller) validate(task *Task) error {
	if c.gen == nil {
		return guarderrors.NewPolicyViolation("generator", "must not be nil")
	}
	maxScore := c.scorer.MaxScore()
	if err := c.policy.Validate(maxScore); err != nil {
		return err
	}
	if c.defaultThreshold < 0 || c.defaultThreshold > maxScore {
		return guarderrors.NewPolicyViolation("threshold",
			fmt.Sprintf("%.2f outside valid score range [0, %.0f]", c.defaultThreshold, maxScore))
	}
	return task.Validate(maxScore)
}

// evaluateRound runs every collector against the candidate under the round
// timeout and folds the signals through the scorer and the SAD aggregator.
// Total: collector failures become findings, never errors.
func (c *Controller) evaluateRound(ctx context.Context, cand *Candidate, task *Task) *EvaluationResult {
	roundCtx := ctx
	if c.roundTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, c.roundTimeout)
		defer cancel()
	}

	var findings []Finding
	testsPassed := true

	for _, collector := range c.collectors {
		collected, passed, err := collector.Evaluate(roundCtx, cand, task)
		if err != nil {
			findings = append(findings, failureFinding(collector, err))
			if collector.Source() == SourceTests {
				testsPassed = false
			}
			continue
		}
		findings = append(findings, collected...)
		if collector.Source() == SourceTests && !passed {
			testsPassed = false
		}
	}

	sad := AggregateSAD(findings, task)
	return &EvaluationResult{
		Candidate:   cand,
		Findings:    findings,
		TestsPassed: testsPassed,
		CRI:         c.scorer.Score(findings, testsPassed, task),
		SAD:         sad.Flagged,
		Triggered:   sad.Triggered,
	}
}

// failureFinding maps a collector failure or timeout onto the collector's
// own finding class so the policy sees a uniform signal.
func failureFinding(collector Collector, err error) Finding {
	kind := KindCollectorError
	switch collector.Source() {
	case SourceTests:
		kind = KindTestFailure
	case SourceLinter:
		kind = KindLintError
	}
	return Finding{
		Kind:     kind,
		Severity: SeverityHigh,
		Source:   collector.Source(),
		Message:  fmt.Sprintf("collector %s did not produce a result: %v", collector.Name(), err),
	}
}

// recordGenerationFailure appends the synthetic round for a failed
// generation: zero CRI, a dedicated finding, terminal ABSTAIN. Generation
// failure is not a security signal and is never promoted to VETO.
func (c *Controller) recordGenerationFailure(run *RunResult, tau int, err error) {
	result := &EvaluationResult{
		Findings: []Finding{{
			Kind:     KindGenerationFailure,
			Severity: SeverityCritical,
			Source:   SourceHarness,
			Message:  err.Error(),
		}},
		TestsPassed: false,
		CRI:         0,
	}
	run.Rounds = append(run.Rounds, RoundRecord{
		Tau:       tau,
		Result:    result,
		Outcome:   OutcomeAbstain,
		DecidedAt: time.Now(),
	})
	run.Verdict = VerdictAbstain
	run.FinalTau = tau
}

// plateaued reports whether the incoming result improves on the previous
// round by less than the configured epsilon.
func (c *Controller) plateaued(run *RunResult, result *EvaluationResult) bool {
	if c.plateauEpsilon <= 0 || len(run.Rounds) == 0 {
		return false
	}
	prev := run.Rounds[len(run.Rounds)-1].Result
	return math.Abs(result.CRI-prev.CRI) < c.plateauEpsilon
}

func (c *Controller) emit(ctx context.Context, run *RunResult) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.AppendRun(ctx, run); err != nil {
		c.logger.Error("task %s: failed to append run record: %v", run.TaskID, err)
		return fmt.Errorf("append run record for task %s: %w", run.TaskID, err)
	}
	return nil
}
