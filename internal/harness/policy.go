package harness

import (
	"fmt"

	guarderrors "guardian/internal/errors"
)

// Policy turns one round's signals into an outcome using a fixed precedence
// order:
//
//  1. SAD true            => VETO, regardless of CRI. Absolute override.
//  2. CRI >= threshold
//     and tests passed    => OK.
//  3. tau reached TauMax  => ABSTAIN. The loop never exceeds its budget.
//  4. otherwise           => CONTINUE (request another candidate).
//
// The round states are EVALUATING (the only non-terminal state, represented
// by OutcomeContinue) and the mutually exclusive terminals OK, ABSTAIN and
// VETO. Identical inputs always produce the identical outcome.
type Policy struct {
	// TauMax is the maximum repair depth, inclusive. A run visits at most
	// TauMax+1 rounds.
	TauMax int
}

// Validate checks the policy's load-time invariants against the score range.
func (p Policy) Validate(maxScore float64) error {
	if p.TauMax < 0 {
		return guarderrors.NewPolicyViolation("tau_max",
			fmt.Sprintf("%d must not be negative", p.TauMax))
	}
	if maxScore <= 0 {
		return guarderrors.NewPolicyViolation("score.max", "must be positive")
	}
	return nil
}

// Decide produces exactly one outcome for a round.
func (p Policy) Decide(cri float64, sad bool, testsPassed bool, tau int, threshold float64) Outcome {
	if sad {
		return OutcomeVeto
	}
	if cri >= threshold && testsPassed {
		return OutcomeOK
	}
	if tau >= p.TauMax {
		return OutcomeAbstain
	}
	return OutcomeContinue
}
