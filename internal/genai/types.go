// Package genai generates free-text answers with hosted LLMs.
//
// Gemini is called through google.golang.org/genai; Groq and other
// OpenAI-compatible endpoints through github.com/openai/openai-go/v3.
// FallbackGenerator chains them: each generator is retried with backoff,
// then the next one in LLM_PROVIDERS order is tried.
package genai

import (
	"context"
	"errors"
	"time"
)

// Provider names an LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderGroq   Provider = "groq"
)

// ProviderEndpoint is the base URL of each OpenAI-compatible provider.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// IsOpenAICompatible reports whether p is reached through openai-go.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("empty model response")

// Generator produces one answer for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() Provider
	Model() string
	Close() error
}

// RetryConfig uses full-jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts per generator, including the first call.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// ProviderConfig configures one provider.
type ProviderConfig struct {
	APIKey string
	// Models is tried in order; the first is the primary.
	Models []string
}

// LLMConfig configures every provider.
type LLMConfig struct {
	// Providers is the fallback order.
	Providers   []Provider
	Gemini      ProviderConfig
	Groq        ProviderConfig
	RetryConfig RetryConfig
}

// Defaults.
var (
	DefaultGeminiModels = []string{"gemini-2.0-flash"}
	DefaultGroqModels   = []string{"llama-3.1-8b-instant"}
	DefaultProviders    = []Provider{ProviderGemini, ProviderGroq}
)

const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 300 * time.Millisecond
	DefaultMaxRetryDelay     = 2 * time.Second
)

// HasAnyProvider reports whether at least one key is set.
func (c *LLMConfig) HasAnyProvider() bool {
	return c.Gemini.APIKey != "" || c.Groq.APIKey != ""
}

// HasProvider reports whether p has an API key.
func (c *LLMConfig) HasProvider(p Provider) bool {
	pc := c.GetProviderConfig(p)
	return pc != nil && pc.APIKey != ""
}

// GetProviderConfig returns p's configuration or nil for an unknown provider.
func (c *LLMConfig) GetProviderConfig(p Provider) *ProviderConfig {
	switch p {
	case ProviderGemini:
		return &c.Gemini
	case ProviderGroq:
		return &c.Groq
	default:
		return nil
	}
}

// ConfiguredProviders returns the providers with keys, in fallback order.
// Duplicates are dropped.
func (c *LLMConfig) ConfiguredProviders() []Provider {
	out := make([]Provider, 0, len(c.Providers))
	seen := make(map[Provider]bool, len(c.Providers))
	for _, p := range c.Providers {
		if c.HasProvider(p) && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
