// Package rules hosts the structural security detectors the scanner
// collector runs against candidate source. Each detector is a pure function
// from source text to findings; tasks opt into detectors by declaring rule
// kinds, so the lookup is registry-driven rather than hardwired.
package rules

import (
	"sync"

	"guardian/internal/harness"
)

// DetectorFunc inspects candidate source and returns the findings it can
// attribute. Implementations must be pure: same source, same findings.
type DetectorFunc func(source string) []harness.Finding

// Registry maps security rule kinds to their detectors.
type Registry struct {
	mu        sync.RWMutex
	detectors map[harness.Kind]DetectorFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{detectors: make(map[harness.Kind]DetectorFunc)}
}

// DefaultRegistry returns a registry with every built-in detector installed.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(harness.KindSQLI, DetectSQLInjection)
	r.Register(harness.KindMissingAuth, DetectMissingAuth)
	r.Register(harness.KindNoTransaction, DetectMissingTransaction)
	r.Register(harness.KindSecrets, DetectHardcodedSecrets)
	r.Register(harness.KindXSS, DetectXSS)
	r.Register(harness.KindWeakRNG, DetectWeakRNG)
	return r
}

// Register installs or replaces the detector for kind.
func (r *Registry) Register(kind harness.Kind, fn DetectorFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[kind] = fn
}

// Lookup returns the detector for kind, if any.
func (r *Registry) Lookup(kind harness.Kind) (DetectorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.detectors[kind]
	return fn, ok
}

// Scan runs the detectors for every rule kind the task declares, in
// declaration order, against the candidate source. Undeclared kinds are
// never run; declared kinds without a registered detector are skipped.
func (r *Registry) Scan(source string, task *harness.Task) []harness.Finding {
	var findings []harness.Finding
	for _, kind := range task.RuleKinds() {
		fn, ok := r.Lookup(kind)
		if !ok {
			continue
		}
		findings = append(findings, fn(source)...)
	}
	return findings
}
