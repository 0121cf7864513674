// Package metrics defines the Prometheus metrics exported at /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Resolution pipeline
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec

	// FAQ snapshot
	FAQRefreshTotal    *prometheus.CounterVec
	FAQRefreshDuration prometheus.Histogram
	FAQSnapshotSize    prometheus.Gauge

	// AI invoker
	AIRequestsTotal   *prometheus.CounterVec
	AIRequestDuration *prometheus.HistogramVec
	AICacheHitsTotal  *prometheus.CounterVec
	AICacheMisses     prometheus.Counter
	AICacheEvictions  prometheus.Counter
	AISingleflight    prometheus.Counter

	// LLM providers
	LLMCallsTotal     *prometheus.CounterVec
	LLMCallDuration   *prometheus.HistogramVec
	LLMFallbacksTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestSeconds *prometheus.HistogramVec

	// Rate limiter
	RateLimiterDropped *prometheus.CounterVec
	RateLimiterKeys    *prometheus.GaugeVec

	// Warmup
	WarmupTasksTotal *prometheus.CounterVec
	WarmupDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_resolutions_total",
				Help: "Answered questions by answer source",
			},
			[]string{"source"}, // rule, faq, ai, fallback, error
		),
		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_resolution_duration_seconds",
				Help:    "Time to resolve one question by answer source",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 4, 8},
			},
			[]string{"source"},
		),

		FAQRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_faq_refresh_total",
				Help: "FAQ snapshot refresh attempts by status",
			},
			[]string{"status"}, // success, error
		),
		FAQRefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "faqbot_faq_refresh_duration_seconds",
				Help:    "FAQ snapshot refresh duration",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
		),
		FAQSnapshotSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "faqbot_faq_snapshot_entries",
				Help: "Number of FAQ entries in the live snapshot",
			},
		),

		AIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_ai_requests_total",
				Help: "AI fallback requests by outcome and whether the memo served them",
			},
			[]string{"status", "cached"}, // status: ok, timeout, provider_error
		),
		AIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_ai_request_duration_seconds",
				Help:    "Time a request waited for the AI fallback",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 3, 4, 5},
			},
			[]string{"status"},
		),
		AICacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_ai_cache_hits_total",
				Help: "AI answer cache hits by tier",
			},
			[]string{"tier"}, // memory, redis
		),
		AICacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "faqbot_ai_cache_misses_total",
				Help: "AI answer cache misses across all tiers",
			},
		),
		AICacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "faqbot_ai_cache_evictions_total",
				Help: "Entries evicted from the in-process AI answer LRU",
			},
		),
		AISingleflight: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "faqbot_ai_singleflight_shared_total",
				Help: "AI requests that shared an in-flight provider call",
			},
		),

		LLMCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_llm_calls_total",
				Help: "LLM provider calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error
		),
		LLMCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_llm_call_duration_seconds",
				Help:    "LLM provider call duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"provider"},
		),
		LLMFallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_llm_fallbacks_total",
				Help: "Switches from one LLM provider to the next",
			},
			[]string{"from", "to"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		HTTPRequestSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faqbot_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		RateLimiterDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_rate_limiter_dropped_total",
				Help: "Requests rejected by a rate limiter",
			},
			[]string{"limiter"}, // chat
		),
		RateLimiterKeys: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "faqbot_rate_limiter_active_keys",
				Help: "Clients currently tracked by a keyed limiter",
			},
			[]string{"limiter"},
		),

		WarmupTasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faqbot_warmup_tasks_total",
				Help: "Startup warmup steps by step and status",
			},
			[]string{"step", "status"}, // status: success, error
		),
		WarmupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "faqbot_warmup_duration_seconds",
				Help:    "Total duration of startup warmup",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
	}
}

// RecordResolution records one pipeline resolution.
func (m *Metrics) RecordResolution(source string, seconds float64) {
	m.ResolutionsTotal.WithLabelValues(source).Inc()
	m.ResolutionDuration.WithLabelValues(source).Observe(seconds)
}

// RecordFAQRefresh records a snapshot refresh attempt.
func (m *Metrics) RecordFAQRefresh(status string, seconds float64) {
	m.FAQRefreshTotal.WithLabelValues(status).Inc()
	m.FAQRefreshDuration.Observe(seconds)
}

// SetFAQSnapshotSize records the live snapshot size.
func (m *Metrics) SetFAQSnapshotSize(n int) {
	m.FAQSnapshotSize.Set(float64(n))
}

// RecordAIRequest records the outcome of one Ask.
func (m *Metrics) RecordAIRequest(status string, cached bool, seconds float64) {
	m.AIRequestsTotal.WithLabelValues(status, strconv.FormatBool(cached)).Inc()
	m.AIRequestDuration.WithLabelValues(status).Observe(seconds)
}

// RecordAISingleflightShared records a request that joined an in-flight call.
func (m *Metrics) RecordAISingleflightShared() {
	m.AISingleflight.Inc()
}

// RecordAICacheHit records a hit in the given tier.
func (m *Metrics) RecordAICacheHit(tier string) {
	m.AICacheHitsTotal.WithLabelValues(tier).Inc()
}

// RecordAICacheMiss records a miss in every tier.
func (m *Metrics) RecordAICacheMiss() {
	m.AICacheMisses.Inc()
}

// RecordAICacheEviction records an LRU eviction.
func (m *Metrics) RecordAICacheEviction() {
	m.AICacheEvictions.Inc()
}

// RecordLLMCall records one provider call.
func (m *Metrics) RecordLLMCall(provider, status string, seconds float64) {
	m.LLMCallsTotal.WithLabelValues(provider, status).Inc()
	m.LLMCallDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordLLMFallback records a switch between providers.
func (m *Metrics) RecordLLMFallback(from, to string) {
	m.LLMFallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordHTTPRequest records a served request.
func (m *Metrics) RecordHTTPRequest(route string, code int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestSeconds.WithLabelValues(route).Observe(seconds)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}

// SetRateLimiterKeys records how many keys a limiter tracks after cleanup.
func (m *Metrics) SetRateLimiterKeys(limiter string, n int) {
	m.RateLimiterKeys.WithLabelValues(limiter).Set(float64(n))
}

// RecordWarmupTask records a warmup task completion
func (m *Metrics) RecordWarmupTask(step, status string) {
	m.WarmupTasksTotal.WithLabelValues(step, status).Inc()
}

// RecordWarmupDuration records total warmup duration
func (m *Metrics) RecordWarmupDuration(seconds float64) {
	m.WarmupDuration.Observe(seconds)
}
