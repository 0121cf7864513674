package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	EnvPort, EnvLogLevel, EnvShutdownTimeout,
	EnvMongoURL, EnvMongoDatabase, EnvSQLitePath,
	EnvRedisURL, EnvAIRedisTTL, EnvAICacheSize, EnvAICacheErrors,
	EnvAITimeout, EnvAICallDeadline, EnvAIWorkers,
	EnvLLMProviders, EnvGeminiAPIKey, EnvGeminiModel, EnvGroqAPIKey, EnvGroqModel,
	EnvFAQRefreshInterval, EnvFAQMatchThreshold,
	EnvAdminName, EnvAdminEmail,
	EnvCORSAllowedOrigins, EnvChatRateBurst, EnvChatRateRefill, EnvMetricsUsername, EnvMetricsPassword,
	EnvSentryToken, EnvSentryHost, EnvSentryEnvironment, EnvSentrySampleRate,
	EnvBetterStackToken, EnvBetterStackEndpoint,
	EnvR2Endpoint, EnvR2AccessKeyID, EnvR2SecretAccessKey, EnvR2BucketName,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "chatbot_db", cfg.MongoDatabase)
	assert.Empty(t, cfg.MongoURL)
	assert.Equal(t, 512, cfg.AICacheSize)
	assert.True(t, cfg.AICacheErrors)
	assert.Equal(t, 4*time.Second, cfg.AITimeout)
	assert.Equal(t, 60*time.Second, cfg.AICallDeadline)
	assert.Equal(t, 6, cfg.AIWorkers)
	assert.Equal(t, 60*time.Second, cfg.FAQRefreshInterval)
	assert.InDelta(t, 70, cfg.FAQMatchThreshold, 0)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, []string{ProviderGemini, ProviderGroq}, cfg.LLMProviders)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 20, cfg.ChatRateBurst, 0)
	assert.Equal(t, "prometheus", cfg.MetricsUsername)
	assert.False(t, cfg.HasLLMProvider())
	assert.False(t, cfg.R2.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvAITimeout, "2s")
	t.Setenv(EnvAICacheErrors, "false")
	t.Setenv(EnvFAQMatchThreshold, "75.5")
	t.Setenv(EnvLLMProviders, " Groq , ,gemini ")
	t.Setenv(EnvGroqAPIKey, "gsk_test")
	t.Setenv(EnvCORSAllowedOrigins, "https://gat.ac.in, https://www.gat.ac.in")
	t.Setenv(EnvAIWorkers, "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.AITimeout)
	assert.False(t, cfg.AICacheErrors)
	assert.InDelta(t, 75.5, cfg.FAQMatchThreshold, 1e-9)
	assert.Equal(t, []string{ProviderGroq, ProviderGemini}, cfg.LLMProviders)
	assert.True(t, cfg.HasLLMProvider())
	assert.Equal(t, []string{"https://gat.ac.in", "https://www.gat.ac.in"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 6, cfg.AIWorkers, "unparsable values fall back to the default")
}

func validConfig() *Config {
	return &Config{
		Port:               "8000",
		ShutdownTimeout:    time.Second,
		MongoDatabase:      "chatbot_db",
		AICacheSize:        1,
		AIWorkers:          1,
		AITimeout:          time.Second,
		AICallDeadline:     time.Second,
		LLMProviders:       []string{ProviderGemini},
		FAQRefreshInterval: time.Second,
		FAQMatchThreshold:  70,
		CORSAllowedOrigins: []string{"*"},
		ChatRateBurst:      1,
		ChatRateRefill:     1,
		SentrySampleRate:   1,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = "http" }, EnvPort},
		{"port out of range", func(c *Config) { c.Port = "70000" }, EnvPort},
		{"zero cache", func(c *Config) { c.AICacheSize = 0 }, EnvAICacheSize},
		{"zero workers", func(c *Config) { c.AIWorkers = 0 }, EnvAIWorkers},
		{"deadline shorter than timeout", func(c *Config) { c.AICallDeadline = time.Millisecond }, EnvAICallDeadline},
		{"unknown provider", func(c *Config) { c.LLMProviders = []string{"claude"} }, "unknown provider"},
		{"threshold too high", func(c *Config) { c.FAQMatchThreshold = 200 }, EnvFAQMatchThreshold},
		{"limiter without refill", func(c *Config) { c.ChatRateRefill = 0 }, EnvChatRateRefill},
		{"limiter disabled needs no refill", func(c *Config) { c.ChatRateBurst, c.ChatRateRefill = 0, 0 }, ""},
		{"sentry without host", func(c *Config) { c.SentryToken = "t" }, EnvSentryHost},
		{"partial r2", func(c *Config) { c.R2.BucketName = "faq-archive" }, "R2 archive"},
		{"redis ttl", func(c *Config) { c.RedisURL = "redis://localhost:6379" }, EnvAIRedisTTL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Port = ""
	cfg.AIWorkers = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvPort)
	assert.Contains(t, err.Error(), EnvAIWorkers)
}

func TestR2Config_Enabled(t *testing.T) {
	t.Parallel()

	full := R2Config{Endpoint: "https://acc.r2.cloudflarestorage.com", AccessKeyID: "a", SecretAccessKey: "s", BucketName: "b"}
	assert.True(t, full.Enabled())
	assert.False(t, full.partial())
	assert.False(t, R2Config{}.partial())
}
