package collect

import (
	"context"
	"fmt"
	"strings"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
	"guardian/internal/logging"
)

// maxLintFindings caps findings per round so a pathological candidate
// cannot flood the score with thousands of identical style hits.
const maxLintFindings = 50

// Linter runs an external lint command over the materialized candidate and
// turns each reported line into a LINT_ERROR finding.
type Linter struct {
	command []string
	logger  logging.Logger
}

// NewLinter creates a lint collector running the given command. The
// materialized solution path is appended as the final argument.
func NewLinter(command []string, logger logging.Logger) *Linter {
	return &Linter{command: command, logger: logging.OrNop(logger)}
}

func (l *Linter) Name() string { return "linter" }
func (l *Linter) Source() harness.Source { return harness.SourceLinter }

// Evaluate implements harness.Collector.
func (l *Linter) Evaluate(ctx context.Context, cand *harness.Candidate, task *harness.Task) ([]harness.Finding, bool, error) {
	if len(l.command) == 0 {
		return nil, true, nil
	}
	if err := materialize(cand, task); err != nil {
		return nil, false, guarderrors.NewCollectorError(l.Name(), err)
	}

	argv := append(append([]string(nil), l.command...), task.Tests.SolutionPath)
	output, exitCode, err := runCommand(ctx, task.Tests.Dir, argv)
	if err != nil {
		return nil, false, guarderrors.NewCollectorError(l.Name(), err)
	}
	// Some linters report issues yet exit 0, so output counts even on a
	// clean exit.
	if exitCode == 0 && strings.TrimSpace(output) == "" {
		return nil, true, nil
	}

	findings := lintFindings(output)
	if len(findings) == 0 {
		if exitCode == 0 {
			return nil, true, nil
		}
		// Non-zero exit with nothing parseable still counts against the
		// candidate, otherwise a crashing linter reads as clean.
		findings = []harness.Finding{{
			Kind:     harness.KindLintError,
			Severity: harness.SeverityLow,
			Source:   harness.SourceLinter,
			Message:  fmt.Sprintf("lint command exited with code %d", exitCode),
		}}
	}
	l.logger.Debug("task %s tau=%d: %d lint findings", task.ID, cand.Tau, len(findings))
	return findings, false, nil
}

func lintFindings(output string) []harness.Finding {
	var findings []harness.Finding
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		findings = append(findings, harness.Finding{
			Kind:     harness.KindLintError,
			Severity: harness.SeverityLow,
			Source:   harness.SourceLinter,
			Message:  line,
			Location: lintLocation(line),
		})
		if len(findings) == maxLintFindings {
			break
		}
	}
	return findings
}

// lintLocation pulls a file:line prefix out of conventional lint output.
func lintLocation(line string) string {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) >= 2 && parts[0] != "" {
		if isDigits(parts[1]) {
			return parts[0] + ":" + parts[1]
		}
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
