package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyPrecedence(t *testing.T) {
	p := Policy{TauMax: 3}
	threshold := 80.0

	cases := []struct {
		name        string
		cri         float64
		sad         bool
		testsPassed bool
		tau         int
		want        Outcome
	}{
		{"sad vetoes even a perfect score", 100, true, true, 0, OutcomeVeto},
		{"sad vetoes at the last round too", 100, true, true, 3, OutcomeVeto},
		{"clean pass above threshold", 95, false, true, 0, OutcomeOK},
		{"exactly at threshold is accepted", 80, false, true, 1, OutcomeOK},
		{"high score with failing tests never passes", 99, false, false, 1, OutcomeContinue},
		{"below threshold mid-run continues", 60, false, true, 1, OutcomeContinue},
		{"below threshold at tau_max abstains", 60, false, true, 3, OutcomeAbstain},
		{"failing tests at tau_max abstain", 99, false, false, 3, OutcomeAbstain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Decide(tc.cri, tc.sad, tc.testsPassed, tc.tau, threshold)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPolicyDeterministic(t *testing.T) {
	p := Policy{TauMax: 2}
	for i := 0; i < 100; i++ {
		assert.Equal(t, OutcomeContinue, p.Decide(50, false, true, 0, 80))
		assert.Equal(t, OutcomeVeto, p.Decide(50, true, true, 0, 80))
	}
}

func TestPolicyTauMaxZeroDecidesImmediately(t *testing.T) {
	p := Policy{TauMax: 0}
	assert.Equal(t, OutcomeAbstain, p.Decide(50, false, true, 0, 80))
	assert.Equal(t, OutcomeOK, p.Decide(90, false, true, 0, 80))
}

func TestPolicyValidate(t *testing.T) {
	assert.Error(t, Policy{TauMax: -1}.Validate(100))
	assert.Error(t, Policy{TauMax: 3}.Validate(0))
	assert.NoError(t, Policy{TauMax: 0}.Validate(100))
}

func TestOutcomeTerminality(t *testing.T) {
	assert.False(t, OutcomeContinue.Terminal())
	for _, o := range []Outcome{OutcomeOK, OutcomeAbstain, OutcomeVeto} {
		assert.True(t, o.Terminal())
		verdict, ok := o.Verdict()
		assert.True(t, ok)
		assert.EqualValues(t, o, verdict)
	}
	_, ok := OutcomeContinue.Verdict()
	assert.False(t, ok)
}
