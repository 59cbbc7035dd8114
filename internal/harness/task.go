package harness

import (
	"fmt"

	guarderrors "guardian/internal/errors"
)

// SecurityRule declares one security check a task opts into, with its CRI
// penalty weight and whether a hit is veto-capable.
type SecurityRule struct {
	Kind   Kind    `yaml:"kind" json:"kind"`
	Weight float64 `yaml:"weight" json:"weight"`
	Veto   bool    `yaml:"veto" json:"veto"`
}

// TestSuiteRef points at the external test suite for a task. The candidate
// source is materialized at SolutionPath before Command runs in Dir.
type TestSuiteRef struct {
	Command      []string `yaml:"command" json:"command"`
	Dir          string   `yaml:"dir" json:"dir"`
	SolutionPath string   `yaml:"solution_path" json:"solution_path"`
}

// Task is the immutable definition of one evaluation unit: spec text, starter
// code, test suite reference, declared security rules and acceptance
// threshold. Created at load time, never mutated.
type Task struct {
	ID       string `yaml:"id" json:"id"`
	Domain   string `yaml:"domain" json:"domain"`
	Language string `yaml:"language" json:"language"`

	Spec    string `yaml:"spec" json:"-"`
	Starter string `yaml:"starter" json:"-"`

	Tests TestSuiteRef   `yaml:"tests" json:"tests"`
	Rules []SecurityRule `yaml:"rules" json:"rules"`

	// Threshold is the CRI acceptance threshold for this task. Nil means
	// "use the harness default"; an explicit zero is a literal threshold,
	// accepting any candidate whose suite passes.
	Threshold *float64 `yaml:"threshold" json:"threshold,omitempty"`
}

// ThresholdAt builds the pointer for a literal per-task threshold.
func ThresholdAt(v float64) *float64 { return &v }

// VetoKinds returns the subset of declared rule kinds marked veto-capable.
func (t *Task) VetoKinds() map[Kind]bool {
	veto := make(map[Kind]bool, len(t.Rules))
	for _, r := range t.Rules {
		if r.Veto {
			veto[r.Kind] = true
		}
	}
	return veto
}

// RuleKinds returns all declared rule kinds in declaration order.
func (t *Task) RuleKinds() []Kind {
	kinds := make([]Kind, 0, len(t.Rules))
	for _, r := range t.Rules {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

// RuleWeight returns the declared CRI penalty weight for kind, defaulting to
// 1 for undeclared kinds so lint and test findings always count.
func (t *Task) RuleWeight(kind Kind) float64 {
	for _, r := range t.Rules {
		if r.Kind == kind {
			return r.Weight
		}
	}
	return 1
}

// Validate checks the task's load-time invariants. Violations are fatal
// before any round runs.
func (t *Task) Validate(maxScore float64) error {
	if t.ID == "" {
		return guarderrors.NewPolicyViolation("task.id", "must not be empty")
	}
	if t.Threshold != nil && (*t.Threshold < 0 || *t.Threshold > maxScore) {
		return guarderrors.NewPolicyViolation(
			fmt.Sprintf("task[%s].threshold", t.ID),
			fmt.Sprintf("%.2f outside valid score range [0, %.0f]", *t.Threshold, maxScore))
	}
	seen := make(map[Kind]bool, len(t.Rules))
	for _, r := range t.Rules {
		if !IsSecurityKind(r.Kind) {
			return guarderrors.NewPolicyViolation(
				fmt.Sprintf("task[%s].rules", t.ID),
				fmt.Sprintf("%s is not a security rule kind", r.Kind))
		}
		if r.Weight < 0 {
			return guarderrors.NewPolicyViolation(
				fmt.Sprintf("task[%s].rules[%s].weight", t.ID, r.Kind),
				"must not be negative")
		}
		if seen[r.Kind] {
			return guarderrors.NewPolicyViolation(
				fmt.Sprintf("task[%s].rules", t.ID),
				fmt.Sprintf("duplicate rule %s", r.Kind))
		}
		seen[r.Kind] = true
	}
	return nil
}
