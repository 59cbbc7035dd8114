package collect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
	"guardian/internal/rules"
)

func shellTask(t *testing.T, script string) *harness.Task {
	t.Helper()
	dir := t.TempDir()
	return &harness.Task{
		ID: "task-1",
		Rules: []harness.SecurityRule{
			{Kind: harness.KindSecrets, Weight: 1, Veto: true},
		},
		Tests: harness.TestSuiteRef{
			Command:      []string{"sh", "-c", script},
			Dir:          dir,
			SolutionPath: filepath.Join(dir, "solution.py"),
		},
	}
}

func TestTestRunnerPassingSuite(t *testing.T) {
	task := shellTask(t, "echo '5 passed in 0.1s'")
	cand := harness.NewCandidate("def f(): return 1")

	runner := NewTestRunner(nil)
	findings, passed, err := runner.Evaluate(context.Background(), cand, task)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Empty(t, findings)

	// The candidate was materialized for the suite to import.
	written, err := os.ReadFile(task.Tests.SolutionPath)
	require.NoError(t, err)
	assert.Equal(t, cand.Source, string(written))
}

func TestTestRunnerFailingSuite(t *testing.T) {
	task := shellTask(t, "echo '3 passed, 2 failed'; exit 1")
	cand := harness.NewCandidate("def f(): return None")

	runner := NewTestRunner(nil)
	findings, passed, err := runner.Evaluate(context.Background(), cand, task)
	require.NoError(t, err)
	assert.False(t, passed)
	require.Len(t, findings, 1)
	assert.Equal(t, harness.KindTestFailure, findings[0].Kind)
	assert.Equal(t, harness.SourceTests, findings[0].Source)
	assert.Contains(t, findings[0].Message, "2 of 5 tests failed")
}

func TestTestRunnerBrokenSuiteCommand(t *testing.T) {
	task := shellTask(t, "echo ok")
	task.Tests.Command = []string{"/nonexistent/test-runner"}

	runner := NewTestRunner(nil)
	_, passed, err := runner.Evaluate(context.Background(), harness.NewCandidate("x"), task)
	require.Error(t, err)
	assert.False(t, passed)

	var collErr *guarderrors.CollectorError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "tests", collErr.Collector)
}

func TestTestRunnerTimeout(t *testing.T) {
	task := shellTask(t, "sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	runner := NewTestRunner(nil)
	_, passed, err := runner.Evaluate(ctx, harness.NewCandidate("x"), task)
	require.Error(t, err)
	assert.False(t, passed)
	assert.Contains(t, err.Error(), "timed out")
}

func TestTestRunnerNoCommandDeclared(t *testing.T) {
	task := shellTask(t, "echo ok")
	task.Tests.Command = nil

	runner := NewTestRunner(nil)
	_, _, err := runner.Evaluate(context.Background(), harness.NewCandidate("x"), task)
	require.Error(t, err)
}

func TestLinterCleanRun(t *testing.T) {
	task := shellTask(t, "")
	linter := NewLinter([]string{"true"}, nil)

	findings, passed, err := linter.Evaluate(context.Background(), harness.NewCandidate("x = 1"), task)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Empty(t, findings)
}

func TestLinterReportsPerLineFindings(t *testing.T) {
	dir := t.TempDir()
	lint := filepath.Join(dir, "lint.sh")
	script := "#!/bin/sh\nprintf 'main.py:3:1: E302 expected 2 blank lines\\nmain.py:9:80: E501 line too long\\n'\nexit 1\n"
	require.NoError(t, os.WriteFile(lint, []byte(script), 0o755))

	task := shellTask(t, "")
	linter := NewLinter([]string{lint}, nil)

	findings, passed, err := linter.Evaluate(context.Background(), harness.NewCandidate("x = 1"), task)
	require.NoError(t, err)
	assert.False(t, passed)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, harness.KindLintError, f.Kind)
		assert.Equal(t, harness.SeverityLow, f.Severity)
		assert.Equal(t, harness.SourceLinter, f.Source)
	}
	assert.Equal(t, "main.py:3", findings[0].Location)
	assert.Equal(t, "main.py:9", findings[1].Location)
}

func TestLinterReportsOnCleanExitWithOutput(t *testing.T) {
	dir := t.TempDir()
	lint := filepath.Join(dir, "lint.sh")
	script := "#!/bin/sh\nprintf 'main.py:12:1: W605 invalid escape sequence\\n'\nexit 0\n"
	require.NoError(t, os.WriteFile(lint, []byte(script), 0o755))

	task := shellTask(t, "")
	linter := NewLinter([]string{lint}, nil)

	findings, passed, err := linter.Evaluate(context.Background(), harness.NewCandidate("x = 1"), task)
	require.NoError(t, err)
	assert.False(t, passed)
	require.Len(t, findings, 1)
	assert.Equal(t, harness.KindLintError, findings[0].Kind)
	assert.Contains(t, findings[0].Message, "W605")
}

func TestLinterSilentNonZeroExitStillCounts(t *testing.T) {
	task := shellTask(t, "")
	linter := NewLinter([]string{"sh", "-c", "exit 2"}, nil)

	findings, passed, err := linter.Evaluate(context.Background(), harness.NewCandidate("x = 1"), task)
	require.NoError(t, err)
	assert.False(t, passed)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "exited with code 2")
}

func TestLinterWithoutCommandIsNoop(t *testing.T) {
	task := shellTask(t, "")
	linter := NewLinter(nil, nil)

	findings, passed, err := linter.Evaluate(context.Background(), harness.NewCandidate("x"), task)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Empty(t, findings)
}

func TestSecurityScannerFlagsDeclaredRules(t *testing.T) {
	task := shellTask(t, "")
	scanner := NewSecurityScanner(nil, nil)

	cand := harness.NewCandidate(`password = "hunter2-forever"`)
	findings, passed, err := scanner.Evaluate(context.Background(), cand, task)
	require.NoError(t, err)
	assert.False(t, passed)
	require.Len(t, findings, 1)
	assert.Equal(t, harness.KindSecrets, findings[0].Kind)
	assert.Equal(t, harness.SourceScanner, findings[0].Source)
}

func TestSecurityScannerCleanSource(t *testing.T) {
	task := shellTask(t, "")
	scanner := NewSecurityScanner(nil, nil)

	findings, passed, err := scanner.Evaluate(context.Background(), harness.NewCandidate("def add(a, b): return a + b"), task)
	require.NoError(t, err)
	assert.True(t, passed)
	assert.Empty(t, findings)
}

func TestSecurityScannerCacheDoesNotLeakMutations(t *testing.T) {
	task := shellTask(t, "")
	scanner := NewSecurityScanner(rules.DefaultRegistry(), nil)
	cand := harness.NewCandidate(`token = "abcdef-ghijkl"`)

	first, _, err := scanner.Evaluate(context.Background(), cand, task)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	first[0].Message = "mutated"

	second, _, err := scanner.Evaluate(context.Background(), cand, task)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second[0].Message)
}

func TestSecurityScannerCancelledContext(t *testing.T) {
	task := shellTask(t, "")
	scanner := NewSecurityScanner(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := scanner.Evaluate(ctx, harness.NewCandidate("x"), task)
	assert.Error(t, err)
}
