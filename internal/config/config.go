// Package config loads application settings from the environment
// (optionally seeded from a .env file) and validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM provider names.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Fallback contact used when neither env nor the store provides one.
const (
	DefaultAdminName  = "GAT Admin"
	DefaultAdminEmail = "admin@example.com"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Store: Mongo wins over SQLite; neither means in-memory
	MongoURL      string
	MongoDatabase string
	SQLitePath    string

	// AI answer cache
	RedisURL      string
	AIRedisTTL    time.Duration
	AICacheSize   int
	AICacheErrors bool

	// AI invoker
	AITimeout      time.Duration
	AICallDeadline time.Duration
	AIWorkers      int

	// LLM providers
	LLMProviders []string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// FAQ matching
	FAQRefreshInterval time.Duration
	FAQMatchThreshold  float64

	// Fallback contact override
	AdminName  string
	AdminEmail string

	// HTTP surface
	CORSAllowedOrigins []string
	ChatRateBurst      float64 // 0 disables the limiter
	ChatRateRefill     float64 // tokens per second
	MetricsUsername    string
	MetricsPassword    string // empty = no auth

	// Sentry (Better Stack Errors)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack logs
	BetterStackToken    string
	BetterStackEndpoint string

	R2 R2Config
}

// R2Config holds the Cloudflare R2 (S3-compatible) archive settings.
type R2Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
}

// Enabled reports whether every R2 field is set.
func (r R2Config) Enabled() bool {
	return r.Endpoint != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.BucketName != ""
}

func (r R2Config) partial() bool {
	set := 0
	for _, v := range []string{r.Endpoint, r.AccessKeyID, r.SecretAccessKey, r.BucketName} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "8000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		MongoURL:      getEnv(EnvMongoURL, ""),
		MongoDatabase: getEnv(EnvMongoDatabase, "chatbot_db"),
		SQLitePath:    getEnv(EnvSQLitePath, ""),

		RedisURL:      getEnv(EnvRedisURL, ""),
		AIRedisTTL:    getDurationEnv(EnvAIRedisTTL, 24*time.Hour),
		AICacheSize:   getIntEnv(EnvAICacheSize, 512),
		AICacheErrors: getBoolEnv(EnvAICacheErrors, true),

		AITimeout:      getDurationEnv(EnvAITimeout, 4*time.Second),
		AICallDeadline: getDurationEnv(EnvAICallDeadline, 60*time.Second),
		AIWorkers:      getIntEnv(EnvAIWorkers, 6),

		LLMProviders: getListEnv(EnvLLMProviders, []string{ProviderGemini, ProviderGroq}),
		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:  getEnv(EnvGeminiModel, "gemini-2.0-flash"),
		GroqAPIKey:   getEnv(EnvGroqAPIKey, ""),
		GroqModel:    getEnv(EnvGroqModel, "llama-3.1-8b-instant"),

		FAQRefreshInterval: getDurationEnv(EnvFAQRefreshInterval, 60*time.Second),
		FAQMatchThreshold:  getFloatEnv(EnvFAQMatchThreshold, 70),

		AdminName:  getEnv(EnvAdminName, ""),
		AdminEmail: getEnv(EnvAdminEmail, ""),

		CORSAllowedOrigins: getListEnv(EnvCORSAllowedOrigins, []string{"*"}),
		ChatRateBurst:      getFloatEnv(EnvChatRateBurst, 20),
		ChatRateRefill:     getFloatEnv(EnvChatRateRefill, 1.0),
		MetricsUsername:    getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:    getEnv(EnvMetricsPassword, ""),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		R2: R2Config{
			Endpoint:        getEnv(EnvR2Endpoint, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
		},
	}

	for i, p := range cfg.LLMProviders {
		cfg.LLMProviders[i] = strings.ToLower(p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number, got %q", EnvPort, c.Port))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if c.MongoURL != "" && c.MongoDatabase == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvMongoDatabase, EnvMongoURL))
	}

	if c.AICacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvAICacheSize, c.AICacheSize))
	}
	if c.RedisURL != "" && c.AIRedisTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvAIRedisTTL, c.AIRedisTTL))
	}
	if c.AIWorkers <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvAIWorkers, c.AIWorkers))
	}
	if c.AITimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvAITimeout, c.AITimeout))
	}
	if c.AICallDeadline < c.AITimeout {
		errs = append(errs, fmt.Errorf("%s (%v) must not be shorter than %s (%v)",
			EnvAICallDeadline, c.AICallDeadline, EnvAITimeout, c.AITimeout))
	}
	for _, p := range c.LLMProviders {
		if p != ProviderGemini && p != ProviderGroq {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}

	if c.FAQRefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvFAQRefreshInterval, c.FAQRefreshInterval))
	}
	if c.FAQMatchThreshold < 0 || c.FAQMatchThreshold > 105 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 105], got %v", EnvFAQMatchThreshold, c.FAQMatchThreshold))
	}

	if c.ChatRateBurst < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvChatRateBurst, c.ChatRateBurst))
	}
	if c.ChatRateBurst > 0 && c.ChatRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive when the chat limiter is on, got %v", EnvChatRateRefill, c.ChatRateRefill))
	}
	if len(c.CORSAllowedOrigins) == 0 {
		errs = append(errs, fmt.Errorf("%s must list at least one origin", EnvCORSAllowedOrigins))
	}

	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, fmt.Errorf("%s is required when %s is set", EnvSentryHost, EnvSentryToken))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if c.R2.partial() {
		errs = append(errs, errors.New("R2 archive needs all of R2_ENDPOINT, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME"))
	}

	return errors.Join(errs...)
}

// HasLLMProvider returns true if at least one listed provider has a key.
func (c *Config) HasLLMProvider() bool {
	return (slices.Contains(c.LLMProviders, ProviderGemini) && c.GeminiAPIKey != "") ||
		(slices.Contains(c.LLMProviders, ProviderGroq) && c.GroqAPIKey != "")
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma list and drops blank items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
