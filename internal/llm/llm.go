// Package llm wraps hosted language-model completion APIs behind a single
// synchronous interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/prepai/server/internal/config"
)

// ErrNoCredential is returned when the selected provider has no API key.
var ErrNoCredential = errors.New("llm credential not configured")

var errEmptyResponse = errors.New("empty model response")

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
// An empty Model uses the provider's default model.
type Request struct {
	System      string
	Messages    []Message
	Model       string
	Temperature float32
}

// Model generates text for a request. Implementations issue exactly one
// upstream call per Generate and do not retry.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the model client for the configured provider.
func New(ctx context.Context, cfg config.LLMConfig) (Model, error) {
	if !cfg.Configured() {
		return nil, ErrNoCredential
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// UserPrompt builds a request consisting of a single user turn.
func UserPrompt(prompt string, temperature float32) Request {
	return Request{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: temperature,
	}
}
