package rules

import (
	"regexp"

	"guardian/internal/harness"
)

// The built-in detectors are deliberately heuristic: they flag structural
// patterns that are almost always wrong in generated code (string-built SQL,
// literal credentials, unguarded endpoints). Precise language-aware analysis
// belongs in external tools plugged in through the registry.

var (
	sqlTemplateInterp = regexp.MustCompile(`(?i)(?:SELECT|INSERT|UPDATE|DELETE).*?\$\{[^}]+\}`)
	sqlStringConcat   = regexp.MustCompile(`(?i)(?:SELECT|INSERT|UPDATE|DELETE).*?['"].*?\+.*?['"]`)
	sqlFString        = regexp.MustCompile(`(?i)f['"](?:SELECT|INSERT|UPDATE|DELETE).*?\{[^}]+\}`)
	sqlFormatCall     = regexp.MustCompile(`(?i)['"](?:SELECT|INSERT|UPDATE|DELETE)[^'"]*['"]\s*\.format\(`)
	sqlAnyQuery       = regexp.MustCompile(`(?i)SELECT|INSERT|UPDATE|DELETE`)
	sqlParameterized  = regexp.MustCompile(`\?|\$\d+|%s|execute\([^,)]+,\s*[\[(]`)

	endpointDecl    = regexp.MustCompile(`@app\.\w+|app\.get\(|app\.post\(|router\.(?:GET|POST|Handle)|http\.HandleFunc`)
	userReference   = regexp.MustCompile(`user_id|userId|current_user`)
	authGuard       = regexp.MustCompile(`@login_required|require_auth|verify_token|current_user|AuthMiddleware`)
	writeOperation  = regexp.MustCompile(`(?i)\b(?:INSERT|UPDATE|DELETE)\b|\.save\(\)|\.create\(|\.update\(`)
	transactionUse  = regexp.MustCompile(`(?i)transaction|BEGIN|COMMIT|ROLLBACK|db\.session\.begin|\.Begin\(`)
	domSinkUse      = regexp.MustCompile(`innerHTML|dangerouslySetInnerHTML|\.html\(|document\.write\(`)
	hardcodedSecret = regexp.MustCompile(`(?i)(?:password|secret|api_key|apikey|token)\s*(?:=|:)\s*['"][^'"]{5,}['"]`)
	envIndirection  = regexp.MustCompile(`(?i)env|getenv|environ|os\.Getenv`)
	weakRandomUse   = regexp.MustCompile(`math/rand|random\.random\(|random\.randint\(|Math\.random\(`)
	tokenContext    = regexp.MustCompile(`(?i)token|session|nonce|password|secret|key`)
)

func scannerFinding(kind harness.Kind, ruleID string, severity harness.Severity, message string) harness.Finding {
	return harness.Finding{
		Kind:     kind,
		RuleID:   ruleID,
		Severity: severity,
		Source:   harness.SourceScanner,
		Message:  message,
	}
}

// DetectSQLInjection flags dynamically built SQL: template interpolation,
// string concatenation, f-strings, .format, and query code with no visible
// parameterization at all.
func DetectSQLInjection(source string) []harness.Finding {
	var findings []harness.Finding

	if sqlTemplateInterp.MatchString(source) {
		findings = append(findings, scannerFinding(harness.KindSQLI, "SQLI_TEMPLATE_INTERPOLATION",
			harness.SeverityCritical, "SQL statement built with template interpolation"))
	}
	if sqlStringConcat.MatchString(source) {
		findings = append(findings, scannerFinding(harness.KindSQLI, "SQLI_STRING_CONCAT",
			harness.SeverityCritical, "SQL statement built with string concatenation"))
	}
	if sqlFString.MatchString(source) {
		findings = append(findings, scannerFinding(harness.KindSQLI, "SQLI_FSTRING",
			harness.SeverityCritical, "SQL statement built with f-string interpolation"))
	}
	if sqlFormatCall.MatchString(source) {
		findings = append(findings, scannerFinding(harness.KindSQLI, "SQLI_STRING_FORMAT",
			harness.SeverityCritical, "SQL statement built with .format()"))
	}
	if len(findings) == 0 && sqlAnyQuery.MatchString(source) && !sqlParameterized.MatchString(source) {
		findings = append(findings, scannerFinding(harness.KindSQLI, "SQLI_NO_PARAMETERIZATION",
			harness.SeverityHigh, "query code present with no parameterized execution"))
	}
	return findings
}

// DetectMissingAuth flags endpoint handlers that reference a user identity
// without any visible authentication guard.
func DetectMissingAuth(source string) []harness.Finding {
	if endpointDecl.MatchString(source) && userReference.MatchString(source) && !authGuard.MatchString(source) {
		return []harness.Finding{scannerFinding(harness.KindMissingAuth, "MISSING_AUTH_CHECK",
			harness.SeverityCritical, "endpoint references a user identity without an authentication guard")}
	}
	return nil
}

// DetectMissingTransaction flags two or more write operations with no
// transaction boundary in sight.
func DetectMissingTransaction(source string) []harness.Finding {
	writes := writeOperation.FindAllString(source, -1)
	if len(writes) >= 2 && !transactionUse.MatchString(source) {
		return []harness.Finding{scannerFinding(harness.KindNoTransaction, "NO_TRANSACTION_FOR_MULTI_WRITE",
			harness.SeverityHigh, "multiple write operations without a transaction boundary")}
	}
	return nil
}

// DetectHardcodedSecrets flags credential-looking literals assigned to
// sensitive names. Values routed through the environment are exempt.
func DetectHardcodedSecrets(source string) []harness.Finding {
	var findings []harness.Finding
	for _, match := range hardcodedSecret.FindAllString(source, -1) {
		if envIndirection.MatchString(match) {
			continue
		}
		findings = append(findings, scannerFinding(harness.KindSecrets, "HARDCODED_SECRETS",
			harness.SeverityCritical, "credential assigned from a string literal"))
		break // one finding per candidate is enough to veto
	}
	return findings
}

// DetectXSS flags writes to HTML injection sinks.
func DetectXSS(source string) []harness.Finding {
	if domSinkUse.MatchString(source) {
		return []harness.Finding{scannerFinding(harness.KindXSS, "POTENTIAL_XSS",
			harness.SeverityHigh, "content written to an HTML injection sink")}
	}
	return nil
}

// DetectWeakRNG flags non-cryptographic randomness near token or credential
// handling.
func DetectWeakRNG(source string) []harness.Finding {
	if weakRandomUse.MatchString(source) && tokenContext.MatchString(source) {
		return []harness.Finding{scannerFinding(harness.KindWeakRNG, "WEAK_RNG_FOR_TOKEN",
			harness.SeverityHigh, "non-cryptographic randomness used in a credential context")}
	}
	return nil
}
