package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func secureTask() *Task {
	return &Task{
		ID: "funds_transfer",
		Rules: []SecurityRule{
			{Kind: KindSecrets, Weight: 2, Veto: true},
			{Kind: KindSQLI, Weight: 1.5, Veto: true},
			{Kind: KindNoTransaction, Weight: 1, Veto: false},
		},
	}
}

func TestScoreCleanCandidateIsPerfect(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	assert.Equal(t, 100.0, scorer.Score(nil, true, secureTask()))
}

func TestScoreStaysInBounds(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	task := secureTask()

	// Pile on enough critical findings to drive the raw score negative.
	var findings []Finding
	for i := 0; i < 50; i++ {
		findings = append(findings, Finding{Kind: KindSecrets, Severity: SeverityCritical, Source: SourceScanner})
	}
	got := scorer.Score(findings, false, task)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)
	assert.Equal(t, 0.0, got)
}

func TestScoreMonotonicInFindings(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	task := secureTask()

	base := []Finding{{Kind: KindLintError, Severity: SeverityLow, Source: SourceLinter}}
	more := append(append([]Finding{}, base...),
		Finding{Kind: KindLintError, Severity: SeverityInfo, Source: SourceLinter})

	assert.LessOrEqual(t, scorer.Score(more, true, task), scorer.Score(base, true, task))
	assert.LessOrEqual(t, scorer.Score(base, true, task), scorer.Score(nil, true, task))
}

func TestScoreFailingSuiteDominatesSingleLintNit(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	task := secureTask()

	failingTests := scorer.Score([]Finding{
		{Kind: KindTestFailure, Severity: SeverityHigh, Source: SourceTests},
	}, false, task)
	oneLintNit := scorer.Score([]Finding{
		{Kind: KindLintError, Severity: SeverityLow, Source: SourceLinter},
	}, true, task)

	assert.Less(t, failingTests, oneLintNit)
}

func TestScoreAppliesPerRuleWeights(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	task := secureTask()

	// SECRETS carries weight 2, NO_TRANSACTION weight 1 at equal severity.
	secrets := scorer.Score([]Finding{
		{Kind: KindSecrets, Severity: SeverityHigh, Source: SourceScanner},
	}, true, task)
	noTx := scorer.Score([]Finding{
		{Kind: KindNoTransaction, Severity: SeverityHigh, Source: SourceScanner},
	}, true, task)

	assert.Less(t, secrets, noTx)
	assert.Equal(t, 100.0-10*2, secrets)
	assert.Equal(t, 100.0-10*1, noTx)
}

func TestScoreIdempotent(t *testing.T) {
	scorer := NewWeightedScorer(DefaultScoreConfig())
	task := secureTask()
	findings := []Finding{
		{Kind: KindSQLI, Severity: SeverityCritical, Source: SourceScanner},
		{Kind: KindLintError, Severity: SeverityLow, Source: SourceLinter},
		{Kind: KindTestFailure, Severity: SeverityHigh, Source: SourceTests},
	}

	first := scorer.Score(findings, false, task)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(findings, false, task))
	}
}

func TestScoreConfigValidation(t *testing.T) {
	bad := DefaultScoreConfig()
	bad.Max = 0
	assert.Error(t, bad.Validate())

	bad = DefaultScoreConfig()
	bad.SeverityWeights[SeverityLow] = -1
	assert.Error(t, bad.Validate())

	bad = DefaultScoreConfig()
	bad.SuiteFailurePenalty = -5
	assert.Error(t, bad.Validate())

	assert.NoError(t, DefaultScoreConfig().Validate())
}
