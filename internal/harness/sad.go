package harness

import "sort"

// SADResult is the security anomaly decision for one round: the flag plus
// the rule identifiers that triggered it, for audit and failure messages.
type SADResult struct {
	Flagged   bool
	Triggered []string
}

// AggregateSAD decides the Security Anomaly Detection flag: true iff at
// least one finding's kind is in the task's veto-capable rule set. A pure
// existence check: severity and CRI play no part, so no score can mask a
// live security finding.
func AggregateSAD(findings []Finding, task *Task) SADResult {
	veto := task.VetoKinds()
	if len(veto) == 0 {
		return SADResult{}
	}

	seen := make(map[string]bool)
	var triggered []string
	for _, f := range findings {
		if !veto[f.Kind] {
			continue
		}
		id := f.RuleID
		if id == "" {
			id = string(f.Kind)
		}
		if !seen[id] {
			seen[id] = true
			triggered = append(triggered, id)
		}
	}

	if len(triggered) == 0 {
		return SADResult{}
	}
	sort.Strings(triggered)
	return SADResult{Flagged: true, Triggered: triggered}
}
