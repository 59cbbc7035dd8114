package collect

import (
	"context"
	"fmt"
	"strings"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
	"guardian/internal/logging"
)

// maxOutputInFinding bounds how much raw tool output rides along in a
// finding message. Full output still reaches the repair prompt via the
// message; findings are persisted per round, so they stay small.
const maxOutputInFinding = 2000

// TestRunner executes a task's test suite against the materialized
// candidate and reports TEST_FAILURE findings.
type TestRunner struct {
	logger logging.Logger
}

// NewTestRunner creates the test suite collector.
func NewTestRunner(logger logging.Logger) *TestRunner {
	return &TestRunner{logger: logging.OrNop(logger)}
}

func (r *TestRunner) Name() string { return "tests" }
func (r *TestRunner) Source() harness.Source { return harness.SourceTests }

// Evaluate implements harness.Collector.
func (r *TestRunner) Evaluate(ctx context.Context, cand *harness.Candidate, task *harness.Task) ([]harness.Finding, bool, error) {
	if len(task.Tests.Command) == 0 {
		return nil, false, guarderrors.NewCollectorError(r.Name(), fmt.Errorf("task %s declares no test command", task.ID))
	}
	if err := materialize(cand, task); err != nil {
		return nil, false, guarderrors.NewCollectorError(r.Name(), err)
	}

	output, exitCode, err := runCommand(ctx, task.Tests.Dir, task.Tests.Command)
	if err != nil {
		return nil, false, guarderrors.NewCollectorError(r.Name(), err)
	}

	total, failed := parseTestSummary(output)
	passed := failed == 0 && exitCode == 0
	r.logger.Debug("task %s tau=%d: %d/%d tests failed (exit %d)", task.ID, cand.Tau, failed, total, exitCode)

	if passed {
		return nil, true, nil
	}

	message := fmt.Sprintf("%d of %d tests failed", failed, total)
	if failed == 0 {
		// Non-zero exit with no parsed failures: the suite itself broke.
		message = fmt.Sprintf("test command exited with code %d", exitCode)
	}
	return []harness.Finding{{
		Kind:     harness.KindTestFailure,
		Severity: harness.SeverityHigh,
		Source:   harness.SourceTests,
		Message:  message + "\n" + truncate(output, maxOutputInFinding),
	}}, false, nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n... (output truncated)"
}
