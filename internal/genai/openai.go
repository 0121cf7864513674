package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiGenerator talks to any OpenAI-compatible chat completions API.
type openaiGenerator struct {
	client   openai.Client
	model    string
	provider Provider
}

func newOpenAIGenerator(provider Provider, apiKey, model string, opts ...option.RequestOption) (*openaiGenerator, error) {
	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}
	if model == "" {
		if provider != ProviderGroq {
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
		model = DefaultGroqModels[0]
	}

	// retries are handled by FallbackGenerator
	opts = append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &openaiGenerator{
		client:   openai.NewClient(opts...),
		model:    model,
		provider: provider,
	}, nil
}

func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.4),
		MaxTokens:   openai.Int(512),
	})
	if err != nil {
		return "", WrapError(fmt.Errorf("chat completion: %w", err), g.provider, 0)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *openaiGenerator) Provider() Provider { return g.provider }

func (g *openaiGenerator) Model() string { return g.model }

func (g *openaiGenerator) Close() error { return nil }
