package harness

import (
	"context"
	"time"
)

// Verdict is the terminal decision for a task's run.
type Verdict string

const (
	VerdictOK      Verdict = "OK"
	VerdictAbstain Verdict = "ABSTAIN"
	VerdictVeto    Verdict = "VETO"
)

// Outcome is the per-round policy result. OutcomeContinue is the loop's
// internal retry signal, not a terminal verdict.
type Outcome string

const (
	OutcomeContinue Outcome = "CONTINUE"
	OutcomeOK       Outcome = "OK"
	OutcomeAbstain  Outcome = "ABSTAIN"
	OutcomeVeto     Outcome = "VETO"
)

// Terminal reports whether the outcome ends the run.
func (o Outcome) Terminal() bool {
	return o != OutcomeContinue
}

// Verdict maps a terminal outcome to its Verdict. ok is false for
// OutcomeContinue.
func (o Outcome) Verdict() (Verdict, bool) {
	switch o {
	case OutcomeOK:
		return VerdictOK, true
	case OutcomeAbstain:
		return VerdictAbstain, true
	case OutcomeVeto:
		return VerdictVeto, true
	default:
		return "", false
	}
}

// EvaluationResult bundles a candidate with every signal collected for it in
// one round. Exactly one exists per Candidate; immutable once built.
type EvaluationResult struct {
	Candidate   *Candidate
	Findings    []Finding
	TestsPassed bool
	CRI         float64
	SAD         bool
	// Triggered holds the sorted rule identifiers behind a true SAD flag.
	Triggered []string
}

// RoundRecord pairs one round's evaluation with the policy outcome decided
// for it, for the run's audit trail.
type RoundRecord struct {
	Tau       int
	Result    *EvaluationResult
	Outcome   Outcome
	DecidedAt time.Time
}

// RunResult is the full history of one task's repair loop: every round
// visited plus the terminal verdict and the tau at which it was reached.
type RunResult struct {
	TaskID   string
	Verdict  Verdict
	FinalTau int
	Rounds   []RoundRecord
}

// Final returns the last round's record, or nil for an empty run.
func (r *RunResult) Final() *RoundRecord {
	if len(r.Rounds) == 0 {
		return nil
	}
	return &r.Rounds[len(r.Rounds)-1]
}

// CRIHistory returns the CRI of every round in order, for post-hoc analysis
// of how the score evolved across repair rounds.
func (r *RunResult) CRIHistory() []float64 {
	history := make([]float64, 0, len(r.Rounds))
	for _, round := range r.Rounds {
		history = append(history, round.Result.CRI)
	}
	return history
}

// RecordSink persists run records. Implementations must append a run's full
// round history as one atomic unit so concurrent tasks never interleave
// partial records.
type RecordSink interface {
	AppendRun(ctx context.Context, run *RunResult) error
}
