package generate

import (
	"context"
	"fmt"

	guarderrors "guardian/internal/errors"
	"guardian/internal/harness"
	"guardian/internal/llm"
	"guardian/internal/logging"
)

// LLMGenerator produces candidates by prompting a model client. It
// implements harness.Generator; all failures come back as GenerationError so
// the controller can distinguish generation trouble from its own.
type LLMGenerator struct {
	client  llm.Client
	prompts *PromptBuilder
	logger  logging.Logger
}

var _ harness.Generator = (*LLMGenerator)(nil)

// NewLLMGenerator wires a generator around client. A nil prompt builder
// gets the default budget.
func NewLLMGenerator(client llm.Client, prompts *PromptBuilder, logger logging.Logger) *LLMGenerator {
	if prompts == nil {
		prompts = NewPromptBuilder(0)
	}
	return &LLMGenerator{client: client, prompts: prompts, logger: logging.OrNop(logger)}
}

// Generate implements harness.Generator.
func (g *LLMGenerator) Generate(ctx context.Context, task *harness.Task, prev *harness.Candidate, findings []harness.Finding) (*harness.Candidate, error) {
	var prompt string
	if prev == nil {
		prompt = g.prompts.Initial(task)
	} else {
		prompt = g.prompts.Repair(task, prev, findings)
	}

	resp, err := g.client.Complete(ctx, &llm.Request{
		System: g.prompts.System(),
		Prompt: prompt,
	})
	if err != nil {
		return nil, guarderrors.NewGenerationError(task.ID, err)
	}

	source := llm.ExtractCode(resp.Content)
	if source == "" {
		return nil, guarderrors.NewGenerationError(task.ID, fmt.Errorf("model returned no code"))
	}

	if prev == nil {
		g.logger.Debug("task %s: initial candidate, %d bytes", task.ID, len(source))
		return harness.NewCandidate(source), nil
	}
	g.logger.Debug("task %s: revision tau=%d, %d bytes", task.ID, prev.Tau+1, len(source))
	return prev.Revise(source), nil
}
