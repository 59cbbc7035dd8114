package llm

import (
	"context"
	"fmt"
)

// Request is a provider-agnostic completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response carries the completion text plus token accounting.
type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client is the minimal surface the harness needs from a model provider.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Validate rejects requests the providers would refuse anyway.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("nil request")
	}
	if r.Prompt == "" {
		return fmt.Errorf("empty prompt")
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("negative max tokens")
	}
	return nil
}
