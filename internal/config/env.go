// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Store
	EnvMongoURL      = "MONGO_URL"
	EnvMongoDatabase = "MONGO_DATABASE"
	EnvSQLitePath    = "SQLITE_PATH"

	// AI answer cache
	EnvRedisURL      = "REDIS_URL"
	EnvAIRedisTTL    = "AI_REDIS_TTL"
	EnvAICacheSize   = "AI_CACHE_SIZE"
	EnvAICacheErrors = "AI_CACHE_ERRORS"

	// AI invoker
	EnvAITimeout      = "AI_TIMEOUT"
	EnvAICallDeadline = "AI_CALL_DEADLINE"
	EnvAIWorkers      = "AI_WORKERS"

	// LLM providers
	EnvLLMProviders = "LLM_PROVIDERS"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGeminiModel  = "GEMINI_MODEL"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvGroqModel    = "GROQ_MODEL"

	// FAQ matching
	EnvFAQRefreshInterval = "FAQ_REFRESH_INTERVAL"
	EnvFAQMatchThreshold  = "FAQ_MATCH_THRESHOLD"

	// Fallback contact
	EnvAdminName  = "ADMIN_NAME"
	EnvAdminEmail = "ADMIN_EMAIL"

	// HTTP surface
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	EnvChatRateBurst      = "CHAT_RATE_BURST"
	EnvChatRateRefill     = "CHAT_RATE_REFILL"
	EnvMetricsUsername    = "METRICS_USERNAME"
	EnvMetricsPassword    = "METRICS_PASSWORD"

	// Sentry (Better Stack Errors)
	EnvSentryToken       = "SENTRY_TOKEN"
	EnvSentryHost        = "SENTRY_HOST"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack logs
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// R2 archive for dedup backups
	EnvR2Endpoint        = "R2_ENDPOINT"
	EnvR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "R2_BUCKET_NAME"
)
