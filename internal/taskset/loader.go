// Package taskset loads task definitions from YAML manifests.
package taskset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
	"guardian/internal/logging"
)

// taskEntry is one manifest entry. Spec and starter text can be given
// inline or referenced from files next to the manifest.
type taskEntry struct {
	harness.Task `yaml:",inline"`

	SpecFile    string `yaml:"spec_file"`
	StarterFile string `yaml:"starter_file"`
}

type manifest struct {
	Tasks []taskEntry `yaml:"tasks"`
}

// Load reads a manifest and returns validated tasks. Relative paths in a
// task (spec_file, starter_file, tests.dir, tests.solution_path) resolve
// against the manifest's directory, so task sets stay relocatable.
func Load(path string, maxScore float64, logger logging.Logger) ([]*harness.Task, error) {
	logger = logging.OrNop(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task manifest %s: %w", path, err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse task manifest %s: %w", path, err)
	}
	if len(m.Tasks) == 0 {
		return nil, guarderrors.NewPolicyViolation("tasks", "manifest declares no tasks")
	}

	baseDir := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Tasks))
	tasks := make([]*harness.Task, 0, len(m.Tasks))

	for i := range m.Tasks {
		entry := &m.Tasks[i]
		task := entry.Task

		if seen[task.ID] {
			return nil, guarderrors.NewPolicyViolation("tasks",
				fmt.Sprintf("duplicate task id %s", task.ID))
		}
		seen[task.ID] = true

		if entry.SpecFile != "" {
			text, err := readRelative(baseDir, entry.SpecFile)
			if err != nil {
				return nil, fmt.Errorf("task %s: spec file: %w", task.ID, err)
			}
			task.Spec = text
		}
		if entry.StarterFile != "" {
			text, err := readRelative(baseDir, entry.StarterFile)
			if err != nil {
				return nil, fmt.Errorf("task %s: starter file: %w", task.ID, err)
			}
			task.Starter = text
		}
		if task.Spec == "" {
			return nil, guarderrors.NewPolicyViolation(
				fmt.Sprintf("task[%s].spec", task.ID), "must not be empty")
		}

		task.Tests.Dir = resolve(baseDir, task.Tests.Dir)
		task.Tests.SolutionPath = resolve(baseDir, task.Tests.SolutionPath)

		if err := task.Validate(maxScore); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}

	logger.Info("loaded %d tasks from %s", len(tasks), path)
	return tasks, nil
}

func readRelative(baseDir, path string) (string, error) {
	data, err := os.ReadFile(resolve(baseDir, path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
