package collect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"guardian/internal/harness"
)

// runCommand executes argv in dir and returns its combined output and exit
// code. The context bounds execution; an expired deadline kills the process
// and surfaces as an error so it can never read as a silent pass.
func runCommand(ctx context.Context, dir string, argv []string) (string, int, error) {
	if len(argv) == 0 {
		return "", -1, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()

	if ctx.Err() != nil {
		return string(out), -1, fmt.Errorf("command %s timed out: %w", argv[0], ctx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Non-zero exit is a result, not a collector failure: test and
			// lint tools exit non-zero on findings.
			return string(out), exitErr.ExitCode(), nil
		}
		return string(out), -1, fmt.Errorf("command %s failed to run: %w", argv[0], err)
	}
	return string(out), 0, nil
}

// materialize writes the candidate source to the task's solution path so
// external tools can see it. Collectors that run subprocesses call this
// first; writing the same content twice in one round is harmless.
func materialize(cand *harness.Candidate, task *harness.Task) error {
	path := task.Tests.SolutionPath
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create solution dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(cand.Source), 0o644); err != nil {
		return fmt.Errorf("write solution file: %w", err)
	}
	return nil
}
