package harness

import (
	"fmt"

	guarderrors "guardian/internal/errors"
)

// Scorer reduces one round's signals into a single bounded reliability
// score. Implementations must be total and monotonic: adding a finding never
// raises the score, removing one never lowers it, all else equal.
type Scorer interface {
	Score(findings []Finding, testsPassed bool, task *Task) float64
	MaxScore() float64
}

// ScoreConfig parameterizes the default weighted scorer. The exact penalty
// formula is deliberately configurable; only bounded range and monotonicity
// are fixed.
type ScoreConfig struct {
	// Max is the perfect baseline score. Findings subtract from it.
	Max float64 `yaml:"max" json:"max"`
	// SeverityWeights is the base penalty per finding at each severity.
	SeverityWeights map[Severity]float64 `yaml:"severity_weights" json:"severity_weights"`
	// SuiteFailurePenalty is subtracted once when the test suite did not
	// pass entirely. It must dominate any single low-severity finding so a
	// failing suite never outranks a candidate with one lint nit.
	SuiteFailurePenalty float64 `yaml:"suite_failure_penalty" json:"suite_failure_penalty"`
}

// DefaultScoreConfig returns the standard 0-100 scale.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Max: 100,
		SeverityWeights: map[Severity]float64{
			SeverityInfo:     1,
			SeverityLow:      2,
			SeverityMedium:   5,
			SeverityHigh:     10,
			SeverityCritical: 20,
		},
		SuiteFailurePenalty: 55,
	}
}

// Validate checks the scorer's load-time invariants.
func (c ScoreConfig) Validate() error {
	if c.Max <= 0 {
		return guarderrors.NewPolicyViolation("score.max", "must be positive")
	}
	for sev, w := range c.SeverityWeights {
		if w < 0 {
			return guarderrors.NewPolicyViolation(
				fmt.Sprintf("score.severity_weights[%s]", sev), "must not be negative")
		}
	}
	if c.SuiteFailurePenalty < 0 {
		return guarderrors.NewPolicyViolation("score.suite_failure_penalty", "must not be negative")
	}
	return nil
}

// WeightedScorer is the default Scorer: start from the perfect baseline,
// subtract a severity-scaled, rule-weighted penalty per finding, subtract the
// suite penalty when tests failed, clamp to [0, Max].
type WeightedScorer struct {
	config ScoreConfig
}

// NewWeightedScorer builds the default scorer from config.
func NewWeightedScorer(config ScoreConfig) *WeightedScorer {
	if config.Max == 0 {
		config = DefaultScoreConfig()
	}
	return &WeightedScorer{config: config}
}

// MaxScore returns the top of the score range.
func (s *WeightedScorer) MaxScore() float64 {
	return s.config.Max
}

// Score implements Scorer. Total: never fails, any input clamps into range.
func (s *WeightedScorer) Score(findings []Finding, testsPassed bool, task *Task) float64 {
	score := s.config.Max

	for _, f := range findings {
		weight := 1.0
		if task != nil {
			weight = task.RuleWeight(f.Kind)
		}
		score -= s.severityWeight(f.Severity) * weight
	}

	if !testsPassed {
		score -= s.config.SuiteFailurePenalty
	}

	if score < 0 {
		return 0
	}
	if score > s.config.Max {
		return s.config.Max
	}
	return score
}

func (s *WeightedScorer) severityWeight(sev Severity) float64 {
	if w, ok := s.config.SeverityWeights[sev]; ok {
		return w
	}
	// Unknown severities penalize like medium rather than slipping through.
	if w, ok := s.config.SeverityWeights[SeverityMedium]; ok {
		return w
	}
	return 5
}
