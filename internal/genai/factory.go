package genai

import (
	"context"

	"github.com/gat-college/faqbot/internal/config"
	"github.com/gat-college/faqbot/internal/logger"
)

// NewLLMConfig builds the provider chain configuration from env config.
func NewLLMConfig(cfg *config.Config) LLMConfig {
	providers := make([]Provider, 0, len(cfg.LLMProviders))
	for _, p := range cfg.LLMProviders {
		providers = append(providers, Provider(p))
	}
	return LLMConfig{
		Providers:   providers,
		Gemini:      ProviderConfig{APIKey: cfg.GeminiAPIKey, Models: []string{cfg.GeminiModel}},
		Groq:        ProviderConfig{APIKey: cfg.GroqAPIKey, Models: []string{cfg.GroqModel}},
		RetryConfig: DefaultRetryConfig(),
	}
}

// DefaultRetryConfig returns the default retry settings.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// CreateGenerator builds a FallbackGenerator over every configured
// provider and model, in provider order. It returns nil when no provider
// has a key; a generator that fails to build is logged and skipped.
func CreateGenerator(ctx context.Context, cfg LLMConfig, log *logger.Logger, metrics Recorder) *FallbackGenerator {
	log = log.WithModule("genai")

	var generators []Generator
	for _, p := range cfg.ConfiguredProviders() {
		pc := cfg.GetProviderConfig(p)
		models := pc.Models
		if len(models) == 0 {
			models = []string{""}
		}
		for _, m := range models {
			g, err := newGenerator(ctx, p, pc.APIKey, m)
			if err != nil {
				log.WithError(err).
					WithField("provider", p).
					WithField("model", m).
					Warn("Failed to create LLM generator")
				continue
			}
			generators = append(generators, g)
		}
	}

	if len(generators) == 0 {
		log.Info("No LLM provider configured, AI answers will degrade")
		return nil
	}

	log.WithField("primary", generators[0].Provider()).
		WithField("model", generators[0].Model()).
		WithField("chain_size", len(generators)).
		Info("LLM generator configured")
	return NewFallbackGenerator(cfg.RetryConfig, log, metrics, generators...)
}

func newGenerator(ctx context.Context, p Provider, apiKey, model string) (Generator, error) {
	if p == ProviderGemini {
		return newGeminiGenerator(ctx, apiKey, model)
	}
	return newOpenAIGenerator(p, apiKey, model)
}
