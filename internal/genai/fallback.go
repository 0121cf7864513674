package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gat-college/faqbot/internal/logger"
)

// Recorder receives provider metrics.
type Recorder interface {
	RecordLLMCall(provider, status string, seconds float64)
	RecordLLMFallback(from, to string)
}

// FallbackGenerator tries each generator in order. A generator is retried
// while its errors classify as ActionRetry and the context has budget for
// the backoff. Cancellation stops the whole chain; any other failure moves
// on to the next generator.
type FallbackGenerator struct {
	generators []Generator
	retry      RetryConfig
	log        *logger.Logger
	metrics    Recorder
}

// NewFallbackGenerator chains generators. metrics may be nil.
func NewFallbackGenerator(cfg RetryConfig, log *logger.Logger, metrics Recorder, generators ...Generator) *FallbackGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &FallbackGenerator{
		generators: generators,
		retry:      cfg,
		log:        log.WithModule("genai"),
		metrics:    metrics,
	}
}

// Generate returns the first successful answer.
func (f *FallbackGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if len(f.generators) == 0 {
		return "", errors.New("no LLM generator configured")
	}

	var errs []error
	for i, g := range f.generators {
		if i > 0 && f.metrics != nil {
			f.metrics.RecordLLMFallback(f.label(f.generators[i-1]), f.label(g))
		}

		text, err := f.generateWithRetry(ctx, g, prompt)
		if err == nil {
			return text, nil
		}
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
		f.log.WithError(err).
			WithField("provider", g.Provider()).
			WithField("model", g.Model()).
			WithField("action", ClassifyError(err).String()).
			Warn("LLM generator failed")
	}
	return "", fmt.Errorf("all LLM generators failed: %w", errors.Join(errs...))
}

func (f *FallbackGenerator) generateWithRetry(ctx context.Context, g Generator, prompt string) (string, error) {
	var lastErr error
	for attempt := range f.retry.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		text, err := g.Generate(ctx, prompt)
		f.record(g, err, start)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ClassifyError(err) != ActionRetry || attempt == f.retry.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, f.retry.InitialDelay, f.retry.MaxDelay)
		if !HasSufficientBudget(ctx, backoff) {
			return "", fmt.Errorf("no time left to retry: %w", lastErr)
		}
		f.log.WithField("provider", g.Provider()).
			WithField("attempt", attempt+1).
			WithField("backoff_ms", backoff.Milliseconds()).
			Debug("Retrying LLM call")
		if err := Sleep(ctx, backoff); err != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (f *FallbackGenerator) record(g Generator, err error, start time.Time) {
	if f.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = errorLabel(err)
	}
	f.metrics.RecordLLMCall(f.label(g), status, time.Since(start).Seconds())
}

func (f *FallbackGenerator) label(g Generator) string {
	return g.Provider().String()
}

// Provider returns the primary generator's provider.
func (f *FallbackGenerator) Provider() Provider {
	if len(f.generators) == 0 {
		return ""
	}
	return f.generators[0].Provider()
}

// Model returns the primary generator's model.
func (f *FallbackGenerator) Model() string {
	if len(f.generators) == 0 {
		return ""
	}
	return f.generators[0].Model()
}

// Len returns the chain length.
func (f *FallbackGenerator) Len() int {
	return len(f.generators)
}

// Close closes every generator.
func (f *FallbackGenerator) Close() error {
	var errs []error
	for _, g := range f.generators {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
