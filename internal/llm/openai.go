package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"guardian/internal/logging"
)

// OpenAIConfig configures the OpenAI-compatible client. BaseURL covers
// compatible gateways (vLLM, Ollama's OpenAI endpoint, proxies).
type OpenAIConfig struct {
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Temperature float32
	MaxTokens   int
}

// OpenAIClient talks to any chat-completions compatible endpoint.
type OpenAIClient struct {
	api    *openai.Client
	config OpenAIConfig
	logger logging.Logger
}

// NewOpenAIClient builds a client from config. The API key is read from the
// environment variable named by APIKeyEnv (default OPENAI_API_KEY) so keys
// never live in config files.
func NewOpenAIClient(config OpenAIConfig, logger logging.Logger) (*OpenAIClient, error) {
	keyEnv := config.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, fmt.Errorf("API key environment variable %s is not set", keyEnv)
	}

	clientConfig := openai.DefaultConfig(key)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logging.OrNop(logger),
	}, nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.config.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("completion via %s: %d prompt + %d completion tokens",
		resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
