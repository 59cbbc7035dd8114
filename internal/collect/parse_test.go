package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTestSummary(t *testing.T) {
	cases := []struct {
		name       string
		output     string
		wantTotal  int
		wantFailed int
	}{
		{"pytest all green", "===== 12 passed in 0.34s =====", 12, 0},
		{"pytest with failures", "===== 9 passed, 3 failed in 1.02s =====", 12, 3},
		{"jest summary", "Tests: 2 failed, 5 passed, 7 total", 7, 2},
		{"unittest failures", "Ran 4 tests in 0.01s\n\nFAILED (failures=2)", 2, 2},
		{"go test failures", "--- FAIL: TestA (0.00s)\n--- PASS: TestB (0.00s)\n--- FAIL: TestC (0.00s)\nFAIL", 3, 2},
		{"go test all passing", "--- PASS: TestA (0.00s)\n--- PASS: TestB (0.00s)\nok", 2, 0},
		{"unrecognized but green", "everything passed", 1, 0},
		{"unrecognized garbage", "segmentation fault", 1, 1},
		{"empty output", "", 1, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total, failed := parseTestSummary(tc.output)
			assert.Equal(t, tc.wantTotal, total, "total")
			assert.Equal(t, tc.wantFailed, failed, "failed")
		})
	}
}

func TestLintLocation(t *testing.T) {
	assert.Equal(t, "main.py:14", lintLocation("main.py:14:3: E501 line too long"))
	assert.Equal(t, "", lintLocation("warning: something vague"))
	assert.Equal(t, "", lintLocation(""))
}
