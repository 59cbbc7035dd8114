package llm

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n(.*?)```")

// ExtractCode pulls source code out of a model response. Models wrap code in
// fenced blocks most of the time but not always, so the fallback is the raw
// text. When several blocks are present the longest wins, which skips the
// short usage snippets models like to append.
func ExtractCode(content string) string {
	matches := fencedBlock.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(content)
	}

	best := ""
	for _, m := range matches {
		if len(m[1]) > len(best) {
			best = m[1]
		}
	}
	return strings.TrimSpace(best)
}
