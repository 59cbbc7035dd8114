// Package record persists run histories as JSON Lines so downstream
// analysis can stream them without loading whole runs.
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"guardian/internal/harness"
	"guardian/internal/logging"
)

// Line is one exported record: one line per (task, tau) round. Terminal
// rounds carry the run verdict and the full finding detail, so an ABSTAIN
// record shows exactly what remained unresolved and a VETO record what
// fired; earlier rounds carry an empty verdict and only the count.
type Line struct {
	RunID        string        `json:"run_id"`
	TaskID       string        `json:"task_id"`
	Tau          int           `json:"tau"`
	CRI          float64       `json:"cri"`
	SAD          bool          `json:"sad"`
	Triggered    []string      `json:"triggered_rules,omitempty"`
	Outcome      string        `json:"outcome"`
	Verdict      string        `json:"verdict,omitempty"`
	TestsPassed  bool          `json:"tests_passed"`
	FindingCount int           `json:"finding_count"`
	Findings     []LineFinding `json:"findings,omitempty"`
	DecidedAt    time.Time     `json:"decided_at"`
}

// LineFinding is the persisted form of one finding.
type LineFinding struct {
	Kind     string `json:"kind"`
	RuleID   string `json:"rule_id,omitempty"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// JSONLSink appends run records to a JSONL file. A process-level mutex
// serializes writers in this process; a flock serializes against other
// processes sharing the file. Each run's rounds go out in a single write so
// records from concurrent tasks never interleave.
type JSONLSink struct {
	path   string
	mu     sync.Mutex
	flock  *flock.Flock
	logger logging.Logger
}

var _ harness.RecordSink = (*JSONLSink)(nil)

// NewJSONLSink creates a sink writing to path, creating parent directories
// as needed.
func NewJSONLSink(path string, logger logging.Logger) (*JSONLSink, error) {
	if path == "" {
		return nil, fmt.Errorf("record path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create record dir: %w", err)
		}
	}
	return &JSONLSink{
		path:   path,
		flock:  flock.New(path + ".lock"),
		logger: logging.OrNop(logger),
	}, nil
}

// AppendRun implements harness.RecordSink.
func (s *JSONLSink) AppendRun(ctx context.Context, run *harness.RunResult) error {
	payload, err := encodeRun(run)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock record file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock record file: not acquired")
	}
	defer func() {
		if unlockErr := s.flock.Unlock(); unlockErr != nil {
			s.logger.Warn("unlock record file: %v", unlockErr)
		}
	}()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return fmt.Errorf("append run record: %w", err)
	}
	s.logger.Debug("recorded run for task %s (%d rounds)", run.TaskID, len(run.Rounds))
	return nil
}

// encodeRun renders every round of a run as JSONL, tagged with a fresh run
// id so rounds of one run can be grouped after the fact.
func encodeRun(run *harness.RunResult) ([]byte, error) {
	runID := uuid.NewString()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, round := range run.Rounds {
		line := Line{
			RunID:        runID,
			TaskID:       run.TaskID,
			Tau:          round.Tau,
			CRI:          round.Result.CRI,
			SAD:          round.Result.SAD,
			Triggered:    round.Result.Triggered,
			Outcome:      string(round.Outcome),
			TestsPassed:  round.Result.TestsPassed,
			FindingCount: len(round.Result.Findings),
			DecidedAt:    round.DecidedAt,
		}
		if round.Outcome.Terminal() {
			line.Verdict = string(run.Verdict)
			line.Findings = lineFindings(round.Result.Findings)
		}
		if err := enc.Encode(&line); err != nil {
			return nil, fmt.Errorf("encode run record: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func lineFindings(findings []harness.Finding) []LineFinding {
	if len(findings) == 0 {
		return nil
	}
	out := make([]LineFinding, len(findings))
	for i, f := range findings {
		out[i] = LineFinding{
			Kind:     string(f.Kind),
			RuleID:   f.RuleID,
			Severity: f.Severity.String(),
			Source:   string(f.Source),
			Message:  f.Message,
			Location: f.Location,
		}
	}
	return out
}
