package collect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"guardian/internal/harness"
	"guardian/internal/logging"
	"guardian/internal/rules"
)

const securityCacheSize = 512

// SecurityScanner runs the declared security rules against candidate source.
// Scans are pure functions of (source, declared kinds), so results for repeat
// candidates come out of an LRU cache.
type SecurityScanner struct {
	registry *rules.Registry
	cache    *lru.Cache[string, []harness.Finding]
	logger   logging.Logger
}

// NewSecurityScanner creates a scanner over the given registry. A nil
// registry uses the built-in detectors.
func NewSecurityScanner(registry *rules.Registry, logger logging.Logger) *SecurityScanner {
	if registry == nil {
		registry = rules.DefaultRegistry()
	}
	cache, _ := lru.New[string, []harness.Finding](securityCacheSize)
	return &SecurityScanner{registry: registry, cache: cache, logger: logging.OrNop(logger)}
}

func (s *SecurityScanner) Name() string           { return "security" }
func (s *SecurityScanner) Source() harness.Source { return harness.SourceScanner }

// Evaluate implements harness.Collector. It never fails: the detectors are
// in-process and total.
func (s *SecurityScanner) Evaluate(ctx context.Context, cand *harness.Candidate, task *harness.Task) ([]harness.Finding, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	key := s.cacheKey(cand.Source, task)
	if findings, ok := s.cache.Get(key); ok {
		return cloneFindings(findings), len(findings) == 0, nil
	}

	findings := s.registry.Scan(cand.Source, task)
	s.cache.Add(key, findings)
	if len(findings) > 0 {
		s.logger.Debug("task %s tau=%d: %d security findings", task.ID, cand.Tau, len(findings))
	}
	return cloneFindings(findings), len(findings) == 0, nil
}

func (s *SecurityScanner) cacheKey(source string, task *harness.Task) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:]) + "|" + strings.Join(kindStrings(task.RuleKinds()), ",")
}

func kindStrings(kinds []harness.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// cloneFindings guards the cached slice against caller mutation.
func cloneFindings(findings []harness.Finding) []harness.Finding {
	if findings == nil {
		return nil
	}
	out := make([]harness.Finding, len(findings))
	copy(out, findings)
	return out
}
