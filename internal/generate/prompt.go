package generate

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sergi/go-diff/diffmatchpatch"

	"guardian/internal/harness"
)

const systemPrompt = "You are a careful software engineer. " +
	"Write complete, working, secure code. " +
	"Reply with a single fenced code block containing the full solution."

// defaultPromptBudget caps prompt size in tokens. Findings and lineage
// context get trimmed before the task statement does.
const defaultPromptBudget = 6000

const maxFindingsInPrompt = 20

// PromptBuilder renders initial and repair prompts for a task. It keeps a
// tokenizer around because tiktoken encoder construction is not cheap.
type PromptBuilder struct {
	budget  int
	encoder *tiktoken.Tiktoken
}

// NewPromptBuilder creates a builder with the given token budget. Zero means
// the default budget. Tokenizer setup failure degrades to a character
// estimate rather than failing generation.
func NewPromptBuilder(budget int) *PromptBuilder {
	if budget <= 0 {
		budget = defaultPromptBudget
	}
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}
	return &PromptBuilder{budget: budget, encoder: encoder}
}

// System returns the fixed system prompt.
func (b *PromptBuilder) System() string { return systemPrompt }

// Initial renders the prompt for the first candidate of a task.
func (b *PromptBuilder) Initial(task *harness.Task) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s (%s, %s).\n\n", task.ID, task.Domain, task.Language)
	sb.WriteString("Specification:\n")
	sb.WriteString(task.Spec)
	sb.WriteString("\n")
	if task.Starter != "" {
		sb.WriteString("\nStarter code to build on:\n```\n")
		sb.WriteString(task.Starter)
		sb.WriteString("\n```\n")
	}
	b.writeRuleExpectations(&sb, task)
	return b.fit(sb.String())
}

// Repair renders the prompt for a revision: the previous source, the
// findings raised against it, and a diff against its own predecessor when
// one exists so the model sees what its last change did.
func (b *PromptBuilder) Repair(task *harness.Task, prev *harness.Candidate, findings []harness.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s (%s, %s): your previous solution was rejected.\n\n", task.ID, task.Domain, task.Language)
	sb.WriteString("Specification:\n")
	sb.WriteString(task.Spec)
	sb.WriteString("\n\nYour previous solution:\n```\n")
	sb.WriteString(prev.Source)
	sb.WriteString("\n```\n")

	if prev.Parent != nil {
		if d := unifiedChanges(prev.Parent.Source, prev.Source); d != "" {
			sb.WriteString("\nWhat your last revision changed:\n")
			sb.WriteString(d)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nProblems found:\n")
	for i, f := range findings {
		if i == maxFindingsInPrompt {
			fmt.Fprintf(&sb, "- ... and %d more\n", len(findings)-maxFindingsInPrompt)
			break
		}
		fmt.Fprintf(&sb, "- %s\n", f.String())
	}

	b.writeRuleExpectations(&sb, task)
	sb.WriteString("\nFix every problem above and return the complete corrected solution.\n")
	return b.fit(sb.String())
}

func (b *PromptBuilder) writeRuleExpectations(sb *strings.Builder, task *harness.Task) {
	if len(task.Rules) == 0 {
		return
	}
	sb.WriteString("\nSecurity requirements:\n")
	for _, rule := range task.Rules {
		fmt.Fprintf(sb, "- the code must be free of %s issues\n", rule.Kind)
	}
}

// unifiedChanges renders a compact line-oriented change summary between two
// revisions.
func unifiedChanges(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := ""
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// fit truncates a prompt that blows the token budget. Truncation keeps the
// head, which carries the task statement.
func (b *PromptBuilder) fit(prompt string) string {
	if b.tokens(prompt) <= b.budget {
		return prompt
	}

	const marker = "\n... (context truncated to fit the model window)"
	lines := strings.Split(prompt, "\n")
	for len(lines) > 1 {
		cut := len(lines) / 4
		if cut == 0 {
			cut = 1
		}
		lines = lines[:len(lines)-cut]
		candidate := strings.Join(lines, "\n") + marker
		if b.tokens(candidate) <= b.budget {
			return candidate
		}
	}
	// A single line still over budget gets cut by characters.
	if approx := b.budget * 4; approx < len(prompt) {
		return prompt[:approx] + marker
	}
	return prompt
}

func (b *PromptBuilder) tokens(s string) int {
	if b.encoder == nil {
		// Rough heuristic when no tokenizer is available.
		return len(s) / 4
	}
	return len(b.encoder.Encode(s, nil, nil))
}
