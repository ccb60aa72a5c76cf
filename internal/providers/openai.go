package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used for recommendations.
const DefaultModel = "gpt-4-turbo"

// OpenAIConfig configures OpenAIModel.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIModel completes chat transcripts with the OpenAI API.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// NewOpenAIModel returns ErrNotConfigured when cfg has no API key.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &Error{Op: "openai", Err: ErrNotConfigured}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Complete sends the system prompt followed by transcript and returns the
// assistant's reply text.
func (m *OpenAIModel) Complete(ctx context.Context, systemPrompt string, transcript []Message) (string, error) {
	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	msgs := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, t := range transcript {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Content})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    msgs,
		Temperature: m.temperature,
	})
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", wrap("openai chat completion", context.DeadlineExceeded)
		}
		return "", wrap("openai chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", wrap("openai chat completion", errors.New("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}
