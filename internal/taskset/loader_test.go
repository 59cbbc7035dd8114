package taskset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadInlineTasks(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
tasks:
  - id: pay-001
    domain: payments
    language: python
    spec: Implement transfer moving funds atomically.
    threshold: 85
    tests:
      command: ["pytest", "-q"]
      dir: pay
      solution_path: pay/solution.py
    rules:
      - kind: SQLI
        weight: 2
        veto: true
      - kind: NO_TRANSACTION
        weight: 1
`)

	tasks, err := Load(path, 100, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	task := tasks[0]
	assert.Equal(t, "pay-001", task.ID)
	require.NotNil(t, task.Threshold)
	assert.Equal(t, 85.0, *task.Threshold)
	assert.Equal(t, filepath.Join(dir, "pay"), task.Tests.Dir)
	assert.Equal(t, filepath.Join(dir, "pay", "solution.py"), task.Tests.SolutionPath)
	require.Len(t, task.Rules, 2)
	assert.True(t, task.Rules[0].Veto)
	assert.Equal(t, harness.KindSQLI, task.Rules[0].Kind)
}

func TestLoadReadsSpecAndStarterFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte("Build a rate limiter."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "starter.py"), []byte("def allow(): pass"), 0o644))

	path := writeManifest(t, dir, `
tasks:
  - id: rl-001
    spec_file: spec.md
    starter_file: starter.py
`)

	tasks, err := Load(path, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, "Build a rate limiter.", tasks[0].Spec)
	assert.Equal(t, "def allow(): pass", tasks[0].Starter)
}

func TestLoadDistinguishesOmittedFromZeroThreshold(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
tasks:
  - id: defaulted
    spec: x
  - id: explicit-zero
    spec: y
    threshold: 0
`)

	tasks, err := Load(path, 100, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Nil(t, tasks[0].Threshold, "omitted threshold defers to the harness default")
	require.NotNil(t, tasks[1].Threshold)
	assert.Equal(t, 0.0, *tasks[1].Threshold)
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
tasks:
  - id: a
    spec: x
  - id: a
    spec: y
`)
	_, err := Load(path, 100, nil)
	var violation *guarderrors.PolicyViolation
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, violation.Reason, "duplicate")
}

func TestLoadRejectsEmptySpec(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
tasks:
  - id: a
`)
	_, err := Load(path, 100, nil)
	var violation *guarderrors.PolicyViolation
	require.ErrorAs(t, err, &violation)
}

func TestLoadRejectsInvalidRuleKind(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
tasks:
  - id: a
    spec: x
    rules:
      - kind: TEST_FAILURE
        weight: 1
`)
	_, err := Load(path, 100, nil)
	var violation *guarderrors.PolicyViolation
	require.ErrorAs(t, err, &violation)
	assert.Contains(t, violation.Reason, "not a security rule kind")
}

func TestLoadRejectsEmptyManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "tasks: []\n")
	_, err := Load(path, 100, nil)
	assert.Error(t, err)
}

func TestLoadMissingSpecFile(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
tasks:
  - id: a
    spec_file: nope.md
`)
	_, err := Load(path, 100, nil)
	assert.Error(t, err)
}
