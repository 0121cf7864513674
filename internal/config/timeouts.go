package config

import "time"

// HTTP server timeouts. Write must cover the AI wait plus serialization.
const (
	HTTPReadHeader = 5 * time.Second
	HTTPRead       = 10 * time.Second
	HTTPWrite      = 30 * time.Second
	HTTPIdle       = 120 * time.Second
)

// Store timeouts
const (
	// StoreConnect bounds server selection and the initial ping.
	StoreConnect = 5 * time.Second

	// StorePing is the /readyz store check budget.
	StorePing = 2 * time.Second

	// FAQRefresh bounds one snapshot reload inside the refresh loop.
	FAQRefresh = 15 * time.Second
)

// Cache timeouts
const (
	// RedisConnect bounds the startup ping.
	RedisConnect = 5 * time.Second

	// RedisOperation bounds a single GET/SET on the request path.
	RedisOperation = 250 * time.Millisecond
)

// Startup and tooling
const (
	// Warmup bounds all startup steps together.
	Warmup = 30 * time.Second

	// ToolOperation bounds one faqctl subcommand.
	ToolOperation = 5 * time.Minute
)
