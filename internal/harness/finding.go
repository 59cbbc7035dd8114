package harness

import "fmt"

// Kind identifies the class of issue a finding reports. Security kinds match
// the rule identifiers a task declares; the remaining kinds are produced by
// the test, lint and harness collectors themselves.
type Kind string

const (
	KindSQLI              Kind = "SQLI"
	KindMissingAuth       Kind = "MISSING_AUTH"
	KindNoTransaction     Kind = "NO_TRANSACTION"
	KindSecrets           Kind = "SECRETS"
	KindXSS               Kind = "XSS"
	KindWeakRNG           Kind = "WEAK_RNG"
	KindLintError         Kind = "LINT_ERROR"
	KindTestFailure       Kind = "TEST_FAILURE"
	KindCollectorError    Kind = "COLLECTOR_ERROR"
	KindGenerationFailure Kind = "GENERATION_FAILURE"
)

// SecurityKinds lists every kind a task may declare as a security rule.
var SecurityKinds = []Kind{
	KindSQLI,
	KindMissingAuth,
	KindNoTransaction,
	KindSecrets,
	KindXSS,
	KindWeakRNG,
}

// IsSecurityKind reports whether k is a declarable security rule kind.
func IsSecurityKind(k Kind) bool {
	for _, sk := range SecurityKinds {
		if k == sk {
			return true
		}
	}
	return false
}

// Severity is the ordered impact scale of a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Source names the collector that produced a finding.
type Source string

const (
	SourceTests   Source = "tests"
	SourceLinter  Source = "linter"
	SourceScanner Source = "scanner"
	SourceHarness Source = "harness"
)

// Finding is one detected issue in a candidate. Immutable value, produced
// fresh per evaluation.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Source   Source   `json:"source"`
	Message  string   `json:"message"`
	// RuleID is the detector-specific identifier (e.g. SQLI_STRING_CONCAT)
	// when the finding came from a named security detector. Empty otherwise.
	RuleID string `json:"rule_id,omitempty"`
	// Location is "file:line" when the collector can attribute one.
	Location string `json:"location,omitempty"`
}

func (f Finding) String() string {
	id := string(f.Kind)
	if f.RuleID != "" {
		id = f.RuleID
	}
	if f.Location != "" {
		return fmt.Sprintf("[%s/%s] %s (%s): %s", f.Source, f.Severity, id, f.Location, f.Message)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", f.Source, f.Severity, id, f.Message)
}
