package errors

import "fmt"

// The harness failure taxonomy. Collector failures fold into findings and
// never propagate past the repair loop; generation failures terminate a
// single task's run; policy violations are fatal at load time.

// CollectorError reports that a signal collector could not produce a result
// (crashed tool, timeout, malformed output). It is converted into a
// collector-class finding by the repair loop, never silently dropped.
type CollectorError struct {
	Collector string
	Err       error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector %s failed: %v", e.Collector, e.Err)
}

func (e *CollectorError) Unwrap() error {
	return e.Err
}

// NewCollectorError wraps err as a failure of the named collector.
func NewCollectorError(collector string, err error) *CollectorError {
	return &CollectorError{Collector: collector, Err: err}
}

// GenerationError reports that the generation collaborator could not produce
// a candidate. It terminates the task's run with ABSTAIN; it is never a
// security signal and never promoted to VETO.
type GenerationError struct {
	TaskID string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed for task %s: %v", e.TaskID, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps err as a generation collaborator failure.
func NewGenerationError(taskID string, err error) *GenerationError {
	return &GenerationError{TaskID: taskID, Err: err}
}

// PolicyViolation reports a broken configuration invariant (negative repair
// depth, acceptance threshold outside the score range, negative rule
// weight). Fatal before any round runs.
type PolicyViolation struct {
	Field  string
	Reason string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("policy violation: %s: %s", e.Field, e.Reason)
}

// NewPolicyViolation reports an invalid configuration field.
func NewPolicyViolation(field, reason string) *PolicyViolation {
	return &PolicyViolation{Field: field, Reason: reason}
}
