package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnce(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)
	require.NotNil(t, m)

	// a second registration on the same registry must collide
	assert.Panics(t, func() { New(registry) })

	// separate registries are independent
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}

func TestRecorders(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.RecordResolution("faq", 0.002)
	m.RecordResolution("faq", 0.003)
	m.RecordResolution("rule", 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("faq")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("rule")), 0)

	m.RecordFAQRefresh("success", 0.1)
	m.RecordFAQRefresh("error", 0.2)
	m.SetFAQSnapshotSize(42)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FAQRefreshTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.FAQSnapshotSize), 0)

	m.RecordAIRequest("ok", true, 0.001)
	m.RecordAIRequest("timeout", false, 4)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("ok", "true")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AIRequestsTotal.WithLabelValues("timeout", "false")), 0)

	m.RecordAICacheHit("memory")
	m.RecordAICacheHit("redis")
	m.RecordAICacheMiss()
	m.RecordAICacheEviction()
	m.RecordAISingleflightShared()
	assert.InDelta(t, 1, testutil.ToFloat64(m.AICacheHitsTotal.WithLabelValues("redis")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AICacheMisses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AICacheEvictions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AISingleflight), 0)

	m.RecordLLMCall("gemini", "error", 1.2)
	m.RecordLLMFallback("gemini", "groq")
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMCallsTotal.WithLabelValues("gemini", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMFallbacksTotal.WithLabelValues("gemini", "groq")), 0)

	m.RecordHTTPRequest("/chat", 200, 0.01)
	m.RecordRateLimiterDrop("chat")
	m.SetRateLimiterKeys("chat", 3)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("/chat", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("chat")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.RateLimiterKeys.WithLabelValues("chat")), 0)

	m.RecordWarmupTask("faq_snapshot", "success")
	m.RecordWarmupDuration(0.5)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WarmupTasksTotal.WithLabelValues("faq_snapshot", "success")), 0)
}
