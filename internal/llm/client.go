// Package llm provides the chat-completion clients used by the pipeline
// stages. Each stage talks to a different provider with its own auth
// convention; all of them share the same contract: one attempt per call,
// no retry, the caller falls back on any failure.
package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ClientConfig holds the common configuration for a provider client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

const defaultMaxTokens = 4000

// Low temperature for consistent, structured output.
const defaultTemperature = 0.1

// chatMessage is the OpenAI-wire message shape, shared by the OpenAI and
// GitHub Models clients.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
