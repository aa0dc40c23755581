package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIModel generates completions against any OpenAI-compatible endpoint.
type OpenAIModel struct {
	client       *openai.Client
	defaultModel string
}

// NewOpenAIModel creates an OpenAI-compatible model. An empty baseURL keeps
// the library default.
func NewOpenAIModel(apiKey, baseURL, defaultModel string) *OpenAIModel {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if defaultModel == "" {
		defaultModel = openai.GPT4oMini
	}

	return &OpenAIModel{
		client:       openai.NewClientWithConfig(clientConfig),
		defaultModel: defaultModel,
	}
}

// Generate implements Model.
func (m *OpenAIModel) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = m.defaultModel
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: req.Temperature,
		Messages:    toOpenAIMessages(req),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

func toOpenAIMessages(req Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}
