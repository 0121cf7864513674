package genai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gat-college/faqbot/internal/config"
)

func TestConfiguredProviders(t *testing.T) {
	t.Parallel()

	cfg := LLMConfig{
		Providers: []Provider{ProviderGroq, "cerebras", ProviderGemini, ProviderGroq},
		Gemini:    ProviderConfig{APIKey: "g"},
		Groq:      ProviderConfig{APIKey: "q"},
	}
	assert.Equal(t, []Provider{ProviderGroq, ProviderGemini}, cfg.ConfiguredProviders())
	assert.True(t, cfg.HasAnyProvider())
	assert.False(t, cfg.HasProvider("cerebras"))
	assert.Nil(t, cfg.GetProviderConfig("cerebras"))

	cfg.Gemini.APIKey = ""
	assert.Equal(t, []Provider{ProviderGroq}, cfg.ConfiguredProviders())
}

func TestNewLLMConfig(t *testing.T) {
	t.Parallel()

	cfg := NewLLMConfig(&config.Config{
		LLMProviders: []string{"groq", "gemini"},
		GeminiAPIKey: "gk",
		GeminiModel:  "gemini-2.0-flash",
		GroqAPIKey:   "qk",
		GroqModel:    "llama-3.1-8b-instant",
	})

	assert.Equal(t, []Provider{ProviderGroq, ProviderGemini}, cfg.Providers)
	assert.Equal(t, []string{"gemini-2.0-flash"}, cfg.Gemini.Models)
	assert.Equal(t, "qk", cfg.Groq.APIKey)
	assert.Equal(t, DefaultRetryConfig(), cfg.RetryConfig)
}

func TestCreateGenerator(t *testing.T) {
	t.Parallel()

	t.Run("no keys", func(t *testing.T) {
		t.Parallel()
		g := CreateGenerator(context.Background(), LLMConfig{Providers: DefaultProviders}, testLogger(), nil)
		assert.Nil(t, g)
	})

	t.Run("provider order", func(t *testing.T) {
		t.Parallel()
		g := CreateGenerator(context.Background(), LLMConfig{
			Providers:   []Provider{ProviderGroq, ProviderGemini},
			Gemini:      ProviderConfig{APIKey: "g", Models: []string{"gemini-2.0-flash"}},
			Groq:        ProviderConfig{APIKey: "q", Models: []string{"llama-3.1-8b-instant", "llama-3.3-70b-versatile"}},
			RetryConfig: DefaultRetryConfig(),
		}, testLogger(), nil)
		require.NotNil(t, g)
		assert.Equal(t, 3, g.Len())
		assert.Equal(t, ProviderGroq, g.Provider())
		assert.Equal(t, "llama-3.1-8b-instant", g.Model())
		assert.Equal(t, ProviderGemini, g.generators[2].Provider())
	})

	t.Run("default model", func(t *testing.T) {
		t.Parallel()
		g := CreateGenerator(context.Background(), LLMConfig{
			Providers: []Provider{ProviderGroq},
			Groq:      ProviderConfig{APIKey: "q"},
		}, testLogger(), nil)
		require.NotNil(t, g)
		assert.Equal(t, DefaultGroqModels[0], g.Model())
	})
}

func TestProvider_IsOpenAICompatible(t *testing.T) {
	t.Parallel()

	assert.True(t, ProviderGroq.IsOpenAICompatible())
	assert.False(t, ProviderGemini.IsOpenAICompatible())
	assert.Equal(t, "groq", ProviderGroq.String())
}
